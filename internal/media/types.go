package media

import (
	"hash/fnv"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// MimeTypes maps supported image extensions to their MIME type
var MimeTypes = map[string]string{
	".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png",
	".gif": "image/gif", ".webp": "image/webp", ".bmp": "image/bmp",
	".tif": "image/tiff", ".tiff": "image/tiff",
	".heic": "image/heic", ".heif": "image/heif",
}

// MimeTypeFor returns the MIME type for path, if it is an image
func MimeTypeFor(path string) (string, bool) {
	mt, ok := MimeTypes[strings.ToLower(filepath.Ext(path))]
	return mt, ok
}

// FileEntry is one image file found on disk
type FileEntry struct {
	Path       string
	Name       string
	MimeType   string
	Size       int64
	ModTime    time.Time
	BucketID   int64
	BucketName string
}

// BucketID derives a stable folder id from its directory path. Paths are
// folded to lower case only on Windows, where the filesystem ignores case.
func BucketID(dir string) int64 {
	key := filepath.Clean(dir)
	if runtime.GOOS == "windows" {
		key = strings.ToLower(key)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}

// FileURI builds the storage reference for a local path
func FileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// PathFromURI returns the local path behind a file:// reference. Plain paths
// are returned unchanged.
func PathFromURI(ref string) (string, bool) {
	if !strings.Contains(ref, "://") {
		return ref, ref != ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}
