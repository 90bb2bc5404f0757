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
	"fmt"
	"html"
	"image"
	"io"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

var (
	// ImageCacheSize is the size of images caches. Composing a mosaic is much
	// faster if scaled photos are cached (duplicates are often placed near
	// each other). It must be a number ≥ 1.
	ImageCacheSize = 15
)

// ImageCache is used to cache scaled, cropped versions of photos during
// mosaic composition.
//
// Caches are safe for concurrent use.
type ImageCache struct {
	m           *sync.Mutex
	size        int
	content     map[string]image.Image
	insertOrder []string
}

// NewImageCache returns an empty image cache. size is the number of images that
// will be cached. size must be ≥ 1.
func NewImageCache(size int) *ImageCache {
	if size <= 0 {
		size = 1
	}
	var m sync.Mutex
	return &ImageCache{
		m:           &m,
		size:        size,
		content:     make(map[string]image.Image, size),
		insertOrder: make([]string, 0, size),
	}
}

func (cache *ImageCache) keyFormat(id PhotoID, v CropVariant, mirror bool, width, height int) string {
	return fmt.Sprintf("%d-%d-%t-%d-%d", id, v, mirror, width, height)
}

// Put adds an image to the cache. If the cache is full the oldest entry is
// removed.
func (cache *ImageCache) Put(id PhotoID, v CropVariant, mirror bool, width, height int, img image.Image) {
	cache.m.Lock()
	defer cache.m.Unlock()
	keyFmt := cache.keyFormat(id, v, mirror, width, height)
	if _, has := cache.content[keyFmt]; has {
		return
	}
	if len(cache.insertOrder) >= cache.size {
		fst := cache.insertOrder[0]
		cache.insertOrder = cache.insertOrder[1:]
		delete(cache.content, fst)
	}
	cache.insertOrder = append(cache.insertOrder, keyFmt)
	cache.content[keyFmt] = img
}

// Get returns the image from the cache, nil if it is not in the cache.
func (cache *ImageCache) Get(id PhotoID, v CropVariant, mirror bool, width, height int) image.Image {
	cache.m.Lock()
	defer cache.m.Unlock()
	return cache.content[cache.keyFormat(id, v, mirror, width, height)]
}

// Len returns the number of cached images.
func (cache *ImageCache) Len() int {
	cache.m.Lock()
	defer cache.m.Unlock()
	return len(cache.insertOrder)
}

// CellSize is the size of one tile in a rendered mosaic.
type CellSize struct {
	X, Y int
}

// RenderCellSize returns the tile size in pixels for a layout rendered with
// the given cell size (the width of a tile).
func RenderCellSize(layout *MosaicLayout, cellsize int) CellSize {
	width := float64(cellsize * layout.HCells)
	height := (float64(cellsize) / layout.TileAspectRatio) * float64(layout.VCells)
	return CellSize{
		X: maxOne(int(width/float64(layout.HCells) + 0.5)),
		Y: maxOne(int(height/float64(layout.VCells) + 0.5)),
	}
}

// CellSizeFor computes the smallest cell size s.t. the rendered mosaic is at
// least minWidth × minHeight pixels.
func CellSizeFor(layout *MosaicLayout, minWidth, minHeight int) int {
	outputAspect := float64(minWidth) / float64(minHeight)
	var cellsize int
	if layout.TargetAspectRatio < outputAspect {
		cellsize = int(float64(minHeight) / float64(layout.VCells) * layout.TileAspectRatio)
	} else {
		cellsize = minWidth / layout.HCells
	}
	cellsize = maxOne(cellsize)
	for {
		size := RenderCellSize(layout, cellsize)
		if size.X*layout.HCells >= minWidth && size.Y*layout.VCells >= minHeight {
			return cellsize
		}
		cellsize++
	}
}

// ComposeOptions are the parameters for ComposeMosaic.
type ComposeOptions struct {
	CellSize int
	// Resizer is used to scale photos, if nil DefaultResizer is used.
	Resizer ImageResizer
	// Progress is called after each tile, may be nil.
	Progress ProgressFunc
}

func tileOrigin(layout *MosaicLayout, cell LayoutCell, size CellSize) image.Point {
	if layout.Mode == Overlapping {
		return image.Pt(cell.X*size.X/layout.ResoX, cell.Y*size.Y/layout.ResoY)
	}
	return image.Pt(cell.X*size.X, cell.Y*size.Y)
}

func loadTile(corpus PhotoCorpus, cell LayoutCell, size CellSize, tileAspect float64,
	resizer ImageResizer, cache *ImageCache) (image.Image, error) {
	if img := cache.Get(cell.CandidateID, cell.Variant, cell.Mirror, size.X, size.Y); img != nil {
		return img, nil
	}
	minWidth := size.X
	if size.Y > minWidth {
		minWidth = size.Y
	}
	img, loadErr := corpus.LoadPhoto(cell.CandidateID, minWidth)
	if loadErr != nil {
		return nil, NewDecodeError(cell.CandidateID, "compose", loadErr)
	}
	cropped, cropErr := CropImage(img, tileAspect, cell.Variant)
	if cropErr != nil {
		return nil, NewDecodeError(cell.CandidateID, "compose", cropErr)
	}
	tile := resizer.Resize(uint(size.X), uint(size.Y), cropped)
	if cell.Mirror {
		tile = MirrorImage(tile)
	}
	cache.Put(cell.CandidateID, cell.Variant, cell.Mirror, size.X, size.Y, tile)
	return tile, nil
}

// ComposeMosaic renders the layout, each tile is CellSize pixels wide.
// Photos that can't be loaded are logged and the tile stays black.
func ComposeMosaic(layout *MosaicLayout, corpus PhotoCorpus, opts ComposeOptions) (*image.RGBA, error) {
	if opts.CellSize <= 0 {
		return nil, errors.Errorf("Cell size must be positive, got %d", opts.CellSize)
	}
	if layout.HCells <= 0 || layout.VCells <= 0 || layout.TileAspectRatio <= 0 {
		return nil, errors.New("Invalid layout geometry")
	}
	resizer := opts.Resizer
	if resizer == nil {
		resizer = DefaultResizer
	}
	progress := progressOrIgnore(opts.Progress)
	size := RenderCellSize(layout, opts.CellSize)
	bounds := image.Rect(0, 0, size.X*layout.HCells, size.Y*layout.VCells)
	log.WithFields(log.Fields{
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
		"tile":   fmt.Sprintf("%dx%d", size.X, size.Y),
	}).Info("Composing mosaic")
	res := image.NewRGBA(bounds)
	draw.Draw(res, bounds, image.Black, image.Point{}, draw.Src)
	cache := NewImageCache(ImageCacheSize)
	for i, cell := range layout.Cells {
		tile, tileErr := loadTile(corpus, cell, size, layout.TileAspectRatio, resizer, cache)
		if tileErr != nil {
			log.WithFields(log.Fields{log.ErrorKey: tileErr, "photo": cell.CandidateID}).Warn("Can't insert tile")
			progress(i + 1)
			continue
		}
		origin := tileOrigin(layout, cell, size)
		area := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size.X, size.Y))}
		draw.Draw(res, area, tile, tile.Bounds().Min, draw.Src)
		progress(i + 1)
	}
	return res, nil
}

// WriteImageMap writes a html image map for the rendered mosaic, each tile
// links to the web link of its photo.
func WriteImageMap(w io.Writer, layout *MosaicLayout, imageName string, cellsize int) error {
	size := RenderCellSize(layout, cellsize)
	if _, err := fmt.Fprintf(w, "<img src=\"%s\" usemap=\"#mozmap\" border=0>\n<map name=\"mozmap\">\n",
		html.EscapeString(imageName)); err != nil {
		return err
	}
	for _, cell := range layout.Cells {
		if cell.Image < 0 || cell.Image >= len(layout.FinalImages) {
			continue
		}
		img := layout.FinalImages[cell.Image]
		origin := tileOrigin(layout, cell, size)
		_, err := fmt.Fprintf(w, "<AREA SHAPE=rect COORDS=\"%d,%d,%d,%d\" href=\"%s\" TITLE=\"%s\">\n",
			origin.X, origin.Y, origin.X+size.X, origin.Y+size.Y,
			html.EscapeString(img.WebLink), html.EscapeString(img.Description))
		if err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</map>\n")
	return err
}
