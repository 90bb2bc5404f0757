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

package mosaick

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCellSize(t *testing.T) {
	layout := &MosaicLayout{HCells: 10, VCells: 5, TileAspectRatio: 1}
	assert.Equal(t, CellSize{X: 20, Y: 20}, RenderCellSize(layout, 20))
	layout.TileAspectRatio = 2
	assert.Equal(t, CellSize{X: 20, Y: 10}, RenderCellSize(layout, 20))
}

func TestCellSizeFor(t *testing.T) {
	layout := &MosaicLayout{HCells: 10, VCells: 5, TileAspectRatio: 1, TargetAspectRatio: 0.5}
	cellsize := CellSizeFor(layout, 1000, 300)
	size := RenderCellSize(layout, cellsize)
	assert.GreaterOrEqual(t, size.X*layout.HCells, 1000)
	assert.GreaterOrEqual(t, size.Y*layout.VCells, 300)
	assert.Equal(t, 100, cellsize)
}

func TestComposeMosaic(t *testing.T) {
	session, layout := matchedLayout(t)
	corpus := session.Corpus.(*solidCorpus)
	broken := layout.Cells[0].CandidateID
	corpus.failing[broken] = true

	img, err := ComposeMosaic(layout, corpus, ComposeOptions{CellSize: 4, Resizer: nearest})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4*layout.HCells, 4*layout.VCells), img.Bounds())
	for _, cell := range layout.Cells {
		want := corpus.colors[cell.CandidateID].RGBA()
		if cell.CandidateID == broken {
			want = color.RGBA{A: 0xff}
		}
		for _, p := range []image.Point{{0, 0}, {3, 3}} {
			assert.Equal(t, want, img.RGBAAt(cell.X*4+p.X, cell.Y*4+p.Y))
		}
	}

	_, err = ComposeMosaic(layout, corpus, ComposeOptions{})
	assert.Error(t, err)
}

func TestComposeOverlapping(t *testing.T) {
	red := RGB{R: 255}
	corpus := newSolidCorpus([]RGB{red})
	layout := &MosaicLayout{
		HCells: 2, VCells: 2, ResoX: 2, ResoY: 2,
		TileAspectRatio: 1, TargetAspectRatio: 1, Mode: Overlapping,
		Cells:       []LayoutCell{{X: 1, Y: 2, CandidateID: 0}},
		FinalImages: []FinalImage{{CandidateID: 0}},
	}
	img, err := ComposeMosaic(layout, corpus, ComposeOptions{CellSize: 10, Resizer: nearest})
	require.NoError(t, err)
	assert.Equal(t, red.RGBA(), img.RGBAAt(5, 10))
	assert.Equal(t, red.RGBA(), img.RGBAAt(14, 19))
	assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(4, 10))
	assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(15, 10))
}

func TestWriteImageMap(t *testing.T) {
	_, layout := matchedLayout(t)
	var buf bytes.Buffer
	require.NoError(t, WriteImageMap(&buf, layout, "mosaic.jpg", 10))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<img src=\"mosaic.jpg\""))
	assert.Equal(t, len(layout.Cells), strings.Count(out, "<AREA"))
	assert.Contains(t, out, "COORDS=\"0,0,10,10\"")
	assert.Contains(t, out, "http://example.com/")
	assert.True(t, strings.HasSuffix(out, "</map>\n"))
}

func TestImageCache(t *testing.T) {
	cache := NewImageCache(2)
	a, b, c := solidImage(1, 1, RGB{}), solidImage(1, 1, RGB{R: 1}), solidImage(1, 1, RGB{R: 2})
	cache.Put(1, CropCenter, false, 4, 4, a)
	cache.Put(2, CropCenter, false, 4, 4, b)
	cache.Put(2, CropCenter, false, 4, 4, b)
	assert.Equal(t, 2, cache.Len())
	cache.Put(3, CropCenter, true, 4, 4, c)
	assert.Nil(t, cache.Get(1, CropCenter, false, 4, 4))
	assert.Equal(t, b, cache.Get(2, CropCenter, false, 4, 4))
	assert.Nil(t, cache.Get(3, CropCenter, false, 4, 4))
	assert.Equal(t, c, cache.Get(3, CropCenter, true, 4, 4))
}

func TestRenderPriorityMap(t *testing.T) {
	grid, err := BuildGrid(gradientImage(20, 20), GridOptions{ResoX: 2, ResoY: 2, MaxImages: 25, Resizer: nearest})
	require.NoError(t, err)
	img, err := RenderPriorityMap(grid)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 10), img.Bounds())
	first := grid.Cells[grid.Priority[0]]
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(first.X*2, first.Y*2))
	last := grid.Cells[grid.Priority[len(grid.Priority)-1]]
	assert.Equal(t, last.Pix.At(1, 1).RGBA(), img.RGBAAt(last.X*2+1, last.Y*2+1))

	overlapping, err := BuildGrid(gradientImage(8, 8), GridOptions{ResoX: 2, ResoY: 2, MaxImages: 4, Mode: Overlapping, Resizer: nearest})
	require.NoError(t, err)
	_, err = RenderPriorityMap(overlapping)
	assert.Error(t, err)
}
