package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"imagepick/internal/compress"
	"imagepick/internal/config"
	"imagepick/internal/domain"
	"imagepick/internal/logging"
	"imagepick/internal/media"
	"imagepick/internal/picker"
)

// session wires the index, compressor and coordinator for one run
type session struct {
	cfg     *config.Config
	root    string
	index   *media.SQLiteIndex
	coord   *picker.Coordinator
	logFile io.Closer
}

// loadConfig resolves configuration: an explicit file, then <dir>/.imagepick.toml,
// then the user config, with IMAGEPICK_* variables applied last
func loadConfig(opts *rootOptions, dir string) (*config.Config, error) {
	svc := config.NewConfigService()

	var (
		cfg *config.Config
		err error
	)
	switch {
	case opts.configPath != "":
		cfg, err = svc.LoadFromPath(opts.configPath)
	case dir != "":
		cfg, err = svc.LoadFromPath(filepath.Join(dir, config.FileName))
		if errors.Is(err, config.ErrConfigNotFound) {
			cfg, err = svc.Load()
		}
	default:
		cfg, err = svc.Load()
	}
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.indexVersion > 0 {
		cfg.Index.Version = opts.indexVersion
	}
	if opts.printJSON {
		cfg.UISettings.PrintJSON = true
	}
	if dir != "" {
		cfg.RootDir = dir
	}
	return cfg, nil
}

// openSession loads config, builds the index and creates the coordinator.
// Interactive sessions log to a file so the alt screen stays clean.
func openSession(ctx context.Context, opts *rootOptions, args []string, interactive bool) (*session, error) {
	var dir string
	if len(args) > 0 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}
		dir = abs
	}

	cfg, err := loadConfig(opts, dir)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok {
		logging.SetLevel(lvl)
	}
	if interactive {
		closer, err := logging.SetupFile(logPath())
		if err != nil {
			logging.Warn("Could not open log file: %v", err)
		} else {
			s.logFile = closer
		}
	}

	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		s.Close()
		return nil, fmt.Errorf("not a directory: %s", root)
	}
	s.root = root

	idx, err := media.BuildIndex(ctx, root, media.BuildOptions{
		Version:    cfg.Index.Version,
		MaxDepth:   cfg.Index.MaxDepth,
		SkipHidden: cfg.Index.SkipHidden,
		Config:     cfg.Picker,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to index %s: %w", root, err)
	}
	s.index = idx

	compressor, err := compress.New(compress.Options{})
	if err != nil {
		s.Close()
		return nil, err
	}

	strategy := media.SelectFilterStrategy(idx, media.ConfigTranslator{})
	logging.Info("Using %s filter strategy for index v%d", strategy.Name(), idx.Version())

	s.coord = picker.NewCoordinator(cfg.Picker, idx, compressor, strategy)
	return s, nil
}

// fetch runs one fetch to completion and returns its images
func (s *session) fetch(ctx context.Context) ([]domain.Image, error) {
	s.coord.FetchImages(ctx)
	s.coord.Wait()

	result, ok := s.coord.Result.Latest()
	if !ok {
		return nil, fmt.Errorf("fetch produced no result")
	}
	if result.State == domain.ResultFailure {
		return nil, result.Err
	}
	return result.Data, nil
}

// Close releases the coordinator, index and log file
func (s *session) Close() {
	if s.coord != nil {
		s.coord.Close()
	}
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			logging.Warn("Failed to close index: %v", err)
		}
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

func logPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "imagepick", "imagepick.log")
}
