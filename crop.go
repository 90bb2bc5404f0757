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
	"image"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CropVariant describes which part of a photo is used if the aspect ratio of
// the photo is not the aspect ratio of the tiles.
type CropVariant int

const (
	// CropCenter crops the center of the photo.
	CropCenter CropVariant = iota
	// CropLeading crops flush to the top (or left) edge.
	CropLeading
	// CropTrailing crops flush to the bottom (or right) edge.
	CropTrailing
)

// NumCropVariants is the number of crop variants.
const NumCropVariants = 3

func (v CropVariant) String() string {
	switch v {
	case CropCenter:
		return "CropCenter"
	case CropLeading:
		return "CropLeading"
	case CropTrailing:
		return "CropTrailing"
	default:
		return fmt.Sprintf("CropVariant(%d)", v)
	}
}

// CropRect returns the area of an image with the given bounds that has the
// aspect ratio tileAspect (width / height).
// If the image is too high it is cut vertically, if it is too wide it is cut
// horizontally.
func CropRect(bounds image.Rectangle, tileAspect float64, v CropVariant) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return bounds
	}
	aspect := float64(w) / float64(h)
	var x0, y0, nw, nh int
	switch {
	case aspect < tileAspect:
		nw, nh = w, maxOne(int(float64(w)/tileAspect))
		switch v {
		case CropLeading:
			y0 = 0
		case CropTrailing:
			y0 = h - nh
		default:
			y0 = (h - nh) / 2
		}
	case aspect > tileAspect:
		nw, nh = maxOne(int(float64(h)*tileAspect)), h
		switch v {
		case CropLeading:
			x0 = 0
		case CropTrailing:
			x0 = w - nw
		default:
			x0 = (w - nw) / 2
		}
	default:
		return bounds
	}
	return image.Rect(x0, y0, x0+nw, y0+nh).Add(bounds.Min)
}

// CropImage returns the cropped part of img.
func CropImage(img image.Image, tileAspect float64, v CropVariant) (image.Image, error) {
	return SubImage(img, CropRect(img.Bounds(), tileAspect, v))
}

type cropKey struct {
	id      PhotoID
	variant CropVariant
}

// CropProvider computes the pixel blocks of candidate photos on demand.
// Each photo is loaded at most once, the blocks of all variants are
// memoized for the lifetime of the provider.
//
// A CropProvider is safe for concurrent use.
type CropProvider struct {
	Corpus      PhotoCorpus
	Resizer     ImageResizer
	ResoX       int
	ResoY       int
	TileAspect  float64
	UseVariants bool

	mutex   sync.Mutex
	blocks  map[cropKey]PixelBlock
	failed  map[PhotoID]error
	fetches int
}

// NewCropProvider returns a provider for blocks of size resoX × resoY.
// If useVariants is false only the center crop is computed.
func NewCropProvider(corpus PhotoCorpus, resizer ImageResizer, resoX, resoY int,
	tileAspect float64, useVariants bool) *CropProvider {
	if resizer == nil {
		resizer = DefaultResizer
	}
	return &CropProvider{
		Corpus:      corpus,
		Resizer:     resizer,
		ResoX:       resoX,
		ResoY:       resoY,
		TileAspect:  tileAspect,
		UseVariants: useVariants,
		blocks:      make(map[cropKey]PixelBlock),
		failed:      make(map[PhotoID]error),
	}
}

// NumVariants returns the number of variants computed for each photo.
func (p *CropProvider) NumVariants() int {
	if p.UseVariants {
		return NumCropVariants
	}
	return 1
}

// Fetches returns how often a photo was loaded from the corpus.
func (p *CropProvider) Fetches() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.fetches
}

// Variants returns the blocks for the photo, index i of the result is the
// block for CropVariant(i).
// If the photo can't be loaded a DecodeError is returned, the error is
// memoized as well.
func (p *CropProvider) Variants(id PhotoID) ([]PixelBlock, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if err, has := p.failed[id]; has {
		return nil, err
	}
	num := p.NumVariants()
	if _, has := p.blocks[cropKey{id, CropCenter}]; !has {
		if err := p.compute(id, num); err != nil {
			p.failed[id] = err
			log.WithFields(log.Fields{log.ErrorKey: err, "photo": id}).Warn("Can't compute crops, skipping photo")
			return nil, err
		}
	}
	res := make([]PixelBlock, num)
	for v := 0; v < num; v++ {
		res[v] = p.blocks[cropKey{id, CropVariant(v)}]
	}
	return res, nil
}

func (p *CropProvider) compute(id PhotoID, num int) error {
	minWidth := p.ResoX
	if p.ResoY > minWidth {
		minWidth = p.ResoY
	}
	p.fetches++
	img, loadErr := p.Corpus.LoadPhoto(id, minWidth)
	if loadErr != nil {
		return NewDecodeError(id, "crop", loadErr)
	}
	if img.Bounds().Empty() {
		return NewDecodeError(id, "crop", errors.New("Empty image"))
	}
	computed := make([]PixelBlock, num)
	for v := 0; v < num; v++ {
		cropped, cropErr := CropImage(img, p.TileAspect, CropVariant(v))
		if cropErr != nil {
			return NewDecodeError(id, "crop", cropErr)
		}
		scaled := p.Resizer.Resize(uint(p.ResoX), uint(p.ResoY), cropped)
		sb := scaled.Bounds()
		computed[v] = BlockFromImage(scaled, image.Rect(0, 0, p.ResoX, p.ResoY).Add(sb.Min))
	}
	for v, block := range computed {
		p.blocks[cropKey{id, CropVariant(v)}] = block
	}
	return nil
}
