package picker

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"imagepick/internal/domain"
)

// GroupFolders groups images by bucket id into folders sorted by name.
// Each folder keeps its images in input order and uses the first as cover.
func GroupFolders(images []domain.Image) []domain.Folder {
	var order []int64
	groups := make(map[int64][]domain.Image)
	for _, img := range images {
		if _, seen := groups[img.BucketID]; !seen {
			order = append(order, img.BucketID)
		}
		groups[img.BucketID] = append(groups[img.BucketID], img)
	}

	folders := make([]domain.Folder, 0, len(order))
	for _, id := range order {
		members := groups[id]
		if len(members) == 0 {
			continue
		}
		folders = append(folders, domain.Folder{
			BucketID: id,
			Name:     members[0].BucketName,
			CoverURI: members[0].URI,
			Images:   members,
		})
	}

	// Collators are not safe for concurrent use
	col := collate.New(language.Und)
	sort.SliceStable(folders, func(i, j int) bool {
		return col.CompareString(folders[i].Name, folders[j].Name) < 0
	})
	return folders
}

// FilterByBucket returns the images belonging to bucketID, in input order
func FilterByBucket(images []domain.Image, bucketID int64) []domain.Image {
	out := make([]domain.Image, 0)
	for _, img := range images {
		if img.BucketID == bucketID {
			out = append(out, img)
		}
	}
	return out
}
