// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/FabianWe/mosaick"
	"github.com/FabianWe/mosaick/internal/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func filled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestLoadConfigFlags(t *testing.T) {
	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--reso", "5x4", "--flops=false", "--quality", "draft", "--nodownload"}))
	c, err := f.loadConfig(cmd)
	require.NoError(t, err)
	resoX, resoY := c.TileReso()
	assert.Equal(t, 5, resoX)
	assert.Equal(t, 4, resoY)
	assert.False(t, c.Flops)
	assert.Equal(t, "draft", c.Quality)
	assert.False(t, c.Photos.Download)
	// not set
	assert.True(t, c.DupesAllowed)
	assert.Equal(t, 20, c.CellSize)

	cmd = &cobra.Command{Use: "test"}
	f = runFlags{}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--reso", "0x3"}))
	_, err = f.loadConfig(cmd)
	assert.Error(t, err)
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	img := filled(4, 4, color.RGBA{R: 10, A: 0xff})
	assert.NoError(t, saveImage(filepath.Join(dir, "a.jpg"), img, 90))
	assert.NoError(t, saveImage(filepath.Join(dir, "a.png"), img, 90))
	assert.Error(t, saveImage(filepath.Join(dir, "a.tiff"), img, 90))
	assert.NoFileExists(t, filepath.Join(dir, "a.tiff"))
	assert.Equal(t, "out/a.html", withExt("out/a.jpg", ".html"))
}

func TestProgressWithoutBars(t *testing.T) {
	noBars = true
	defer func() { noBars = false }()
	assert.False(t, showBars())
	bar, progress := newProgressBar(25, "Matching")
	assert.Nil(t, bar)
	require.NotNil(t, progress)
	for i := 1; i <= 25; i++ {
		progress(i)
	}
	finishBar(bar)
}

func TestBuildAndLoad(t *testing.T) {
	dir := t.TempDir()
	photos := filepath.Join(dir, "photos")
	require.NoError(t, os.Mkdir(photos, 0755))
	for i := 0; i < 30; i++ {
		c := color.RGBA{R: uint8(i * 8), G: uint8(i * 8), B: uint8(255 - i*8), A: 0xff}
		writePNG(t, filepath.Join(photos, fmt.Sprintf("photo%02d.png", i)), filled(12, 9, c))
	}
	target := filepath.Join(dir, "target.png")
	gradient := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			gradient.SetRGBA(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 100, A: 0xff})
		}
	}
	writePNG(t, target, gradient)

	c := config.Default()
	c.ResoX = 2
	c.MaxImages = 12
	c.CellSize = 4
	c.Photos.Dir = photos
	c.OutputRoot = filepath.Join(dir, "mosaic")
	require.NoError(t, c.Validate())

	build = buildFlags{}
	require.NoError(t, runBuild(c, target))
	layoutFile := mosaick.LayoutFileName(c.OutputRoot, target)
	assert.FileExists(t, layoutFile)

	layout := &mosaick.MosaicLayout{}
	require.NoError(t, layout.ReadFile(layoutFile))
	assert.Equal(t, layout.HCells*layout.VCells, len(layout.Cells))
	out := mosaick.OutputFileName(c.OutputRoot, target, layout.HCells, layout.VCells, c.CellSize)
	assert.FileExists(t, out)
	assert.FileExists(t, withExt(out, ".html"))

	// render the saved layout again, as png
	require.NoError(t, os.Remove(out))
	build = buildFlags{load: true, png: true}
	require.NoError(t, runBuild(c, target))
	assert.FileExists(t, withExt(out, ".png"))

	// a different pool does not fit the layout
	writePNG(t, filepath.Join(photos, "extra.png"), filled(12, 9, color.RGBA{A: 0xff}))
	assert.Error(t, runBuild(c, target))
	build = buildFlags{}
}
