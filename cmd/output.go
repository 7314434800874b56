package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"imagepick/internal/domain"
	"imagepick/internal/media"
)

type imageOutput struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	URI      string `json:"uri"`
	Path     string `json:"path,omitempty"`
	BucketID int64  `json:"bucket_id"`
	Bucket   string `json:"bucket"`
}

type folderOutput struct {
	BucketID int64  `json:"bucket_id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Cover    string `json:"cover"`
}

// printImages writes one local path (or reference) per line, or a JSON array
func printImages(w io.Writer, images []domain.Image, asJSON bool) error {
	if asJSON {
		out := make([]imageOutput, 0, len(images))
		for _, img := range images {
			path, _ := media.PathFromURI(img.URI)
			out = append(out, imageOutput{
				ID:       img.ID,
				Name:     img.Name,
				URI:      img.URI,
				Path:     path,
				BucketID: img.BucketID,
				Bucket:   img.BucketName,
			})
		}
		return writeJSON(w, out)
	}

	for _, img := range images {
		line := img.URI
		if path, ok := media.PathFromURI(img.URI); ok {
			line = path
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// printFolders writes "<bucket id>\t<count>\t<name>" lines, or a JSON array
func printFolders(w io.Writer, folders []domain.Folder, asJSON bool) error {
	if asJSON {
		out := make([]folderOutput, 0, len(folders))
		for _, f := range folders {
			out = append(out, folderOutput{
				BucketID: f.BucketID,
				Name:     f.Name,
				Count:    len(f.Images),
				Cover:    f.CoverURI,
			})
		}
		return writeJSON(w, out)
	}

	for _, f := range folders {
		if _, err := fmt.Fprintf(w, "%d\t%d\t%s\n", f.BucketID, len(f.Images), f.Name); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
