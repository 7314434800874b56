//go:build e2e && unix

package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/stretchr/testify/require"
)

// AddFolder writes count small JPEGs named <name>-<n>.jpg into <home>/<name>
// and returns the folder path
func (a *App) AddFolder(name string, count int) string {
	a.t.Helper()

	dir := filepath.Join(a.home, name)
	require.NoError(a.t, os.MkdirAll(dir, 0755))

	for i := 1; i <= count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%s-%d.jpg", name, i))
		require.NoError(a.t, writeJPEG(path, uint8(i*40)), "failed to write %s", path)
	}
	return dir
}

func writeJPEG(path string, shade uint8) error {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: 120, B: 200, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 80}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
