package logic

import (
	"sort"
	"strings"

	"imagepick/internal/domain"
)

// SortMode represents different image orderings
type SortMode int

const (
	SortByIndex SortMode = iota // order returned by the media index
	SortByName
	SortByFolder
)

func (m SortMode) String() string {
	switch m {
	case SortByName:
		return "name"
	case SortByFolder:
		return "folder"
	default:
		return "index"
	}
}

// Next cycles to the following sort mode
func (m SortMode) Next() SortMode {
	return (m + 1) % 3
}

// SortImages returns a sorted copy of images; the input is left untouched
func SortImages(images []domain.Image, mode SortMode) []domain.Image {
	out := make([]domain.Image, len(images))
	copy(out, images)

	switch mode {
	case SortByName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortByFolder:
		sort.SliceStable(out, func(i, j int) bool {
			folderI := strings.ToLower(out[i].BucketName)
			folderJ := strings.ToLower(out[j].BucketName)
			if folderI != folderJ {
				return folderI < folderJ
			}
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	}
	return out
}
