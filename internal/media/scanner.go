package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"imagepick/internal/logging"
)

// skipDirs are directory names never worth descending into
var skipDirs = map[string]bool{
	"node_modules": true, "vendor": true, "__pycache__": true,
	"dist": true, "build": true, "target": true,
	".git": true, ".cache": true, ".thumbnails": true,
}

// ScanOptions configures a Scanner
type ScanOptions struct {
	MaxDepth   int  // 0 means unlimited
	SkipHidden bool // skip files and directories starting with "."
}

// Scanner finds image files under a root directory
type Scanner struct {
	opts ScanOptions
}

// NewScanner creates a new Scanner
func NewScanner(opts ScanOptions) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks root and returns every image file it finds. Unreadable entries
// are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]FileEntry, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	var entries []FileEntry
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if path == absRoot {
				return err
			}
			logging.Warn("Error walking path %s: %v", path, err)
			return nil
		}

		name := d.Name()
		hidden := strings.HasPrefix(name, ".") && path != absRoot

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if skipDirs[name] || (s.opts.SkipHidden && hidden) {
				return fs.SkipDir
			}
			if s.opts.MaxDepth > 0 {
				rel, _ := filepath.Rel(absRoot, path)
				if strings.Count(rel, string(filepath.Separator))+1 > s.opts.MaxDepth {
					return fs.SkipDir
				}
			}
			return nil
		}

		if s.opts.SkipHidden && hidden {
			return nil
		}

		mimeType, ok := MimeTypeFor(name)
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Could not stat %s: %v", path, err)
			return nil
		}

		dir := filepath.Dir(path)
		entries = append(entries, FileEntry{
			Path:       path,
			Name:       name,
			MimeType:   mimeType,
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			BucketID:   BucketID(dir),
			BucketName: filepath.Base(dir),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	logging.Debug("Scanned %s: %d images", absRoot, len(entries))
	return entries, nil
}
