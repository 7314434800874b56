package compress

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // WebP format support

	"imagepick/internal/logging"
	"imagepick/internal/media"
)

var (
	// ErrNotCompressed means no replacement file was produced; keep the original
	ErrNotCompressed = errors.New("image not compressed")
	// ErrUnsupported means the image cannot be re-encoded as JPEG
	ErrUnsupported = errors.New("unsupported image")
)

// Options configures a Compressor
type Options struct {
	CacheDir string // where compressed files are written
}

// Params are the per-call compression settings
type Params struct {
	Quality      int // JPEG quality, 1-100
	MaxDimension int // longest edge of the output, 0 keeps the original size
}

// Compressor re-encodes images as JPEG into a cache directory
type Compressor struct {
	cacheDir string
}

// New creates a Compressor, creating its cache directory
func New(opts Options) (*Compressor, error) {
	if opts.CacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		opts.CacheDir = filepath.Join(dir, "imagepick", "compressed")
	}
	if err := os.MkdirAll(opts.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Compressor{cacheDir: opts.CacheDir}, nil
}

// Compress writes a JPEG copy of the image at ref and returns its path.
// It returns an error wrapping ErrNotCompressed or ErrUnsupported when the
// original should be kept.
func (c *Compressor) Compress(ctx context.Context, ref, name string, p Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Quality <= 0 || p.Quality > 100 {
		return "", fmt.Errorf("%w: quality %d", ErrNotCompressed, p.Quality)
	}

	path, ok := media.PathFromURI(ref)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a local file", ErrUnsupported, ref)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif", ".heic", ".heif":
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}

	in, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return "", fmt.Errorf("%w: image has transparency", ErrUnsupported)
	}

	img = constrain(img, p.MaxDimension)

	out := filepath.Join(c.cacheDir, outputName(path, name, in, p))
	if err := imaging.Save(img, out, imaging.JPEGQuality(p.Quality)); err != nil {
		return "", fmt.Errorf("failed to write compressed image: %w", err)
	}

	written, err := os.Stat(out)
	if err != nil {
		return "", fmt.Errorf("failed to stat compressed image: %w", err)
	}
	if written.Size() >= in.Size() {
		if err := os.Remove(out); err != nil {
			logging.Warn("failed to remove oversized output %s: %v", out, err)
		}
		return "", fmt.Errorf("%w: output %d bytes is not smaller than %d", ErrNotCompressed, written.Size(), in.Size())
	}

	logging.Debug("Compressed %s: %d -> %d bytes", path, in.Size(), written.Size())
	return out, nil
}

// constrain downscales img so neither edge exceeds maxDimension
func constrain(img image.Image, maxDimension int) image.Image {
	if maxDimension <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return img
	}
	edge := uint(maxDimension)
	return resize.Thumbnail(edge, edge, img, resize.Lanczos3)
}

// Resolve turns a compressed file path into a storage reference
func (c *Compressor) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("failed to resolve %s: not a regular file", path)
	}
	return media.FileURI(abs), nil
}

// outputName is unique per source file version and compression params
func outputName(path, name string, info os.FileInfo, p Params) string {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s|%d|%d|%d", path, info.ModTime().UnixNano(), info.Size(), p.MaxDimension)

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		stem = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return fmt.Sprintf("%s_q%d_%08x.jpg", stem, p.Quality, h.Sum32())
}
