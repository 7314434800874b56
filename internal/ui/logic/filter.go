package logic

import (
	"path"
	"strings"

	"imagepick/internal/domain"
)

// MatchesFilter checks if an image matches the given filter query.
// "folder:x" matches the folder name only and "ext:x" the file extension;
// anything else matches the image or folder name.
func MatchesFilter(img domain.Image, filterQuery string) bool {
	if filterQuery == "" {
		return true
	}

	query := strings.ToLower(strings.TrimSpace(filterQuery))

	if folder, ok := strings.CutPrefix(query, "folder:"); ok {
		return strings.Contains(strings.ToLower(img.BucketName), folder)
	}
	if ext, ok := strings.CutPrefix(query, "ext:"); ok {
		return MatchesExtension(img, ext)
	}

	return strings.Contains(strings.ToLower(img.Name), query) ||
		strings.Contains(strings.ToLower(img.BucketName), query)
}

// MatchesExtension checks the file extension, with or without the leading dot
func MatchesExtension(img domain.Image, ext string) bool {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return true
	}
	got := strings.TrimPrefix(strings.ToLower(path.Ext(img.Name)), ".")
	if ext == "jpg" || ext == "jpeg" {
		return got == "jpg" || got == "jpeg"
	}
	return got == ext
}

// FilterImages returns the images matching filterQuery, keeping their order
func FilterImages(images []domain.Image, filterQuery string) []domain.Image {
	if filterQuery == "" {
		return images
	}
	out := make([]domain.Image, 0, len(images))
	for _, img := range images {
		if MatchesFilter(img, filterQuery) {
			out = append(out, img)
		}
	}
	return out
}
