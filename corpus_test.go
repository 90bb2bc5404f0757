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
	"image/color"
	"sync"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

var nearest = NewNfntResizer(resize.NearestNeighbor)

// solidCorpus is a corpus of single colored photos.
type solidCorpus struct {
	colors        []RGB
	keys          []string
	width, height int
	failing       map[PhotoID]bool

	mutex sync.Mutex
	loads map[PhotoID]int
}

func newSolidCorpus(colors []RGB) *solidCorpus {
	return &solidCorpus{
		colors:  colors,
		width:   8,
		height:  8,
		failing: make(map[PhotoID]bool),
		loads:   make(map[PhotoID]int),
	}
}

// distinctColors returns n colors with distinct luminance values.
func distinctColors(n int) []RGB {
	res := make([]RGB, n)
	for i := range res {
		res[i] = RGB{R: uint8(i % 256), G: uint8((i / 256) * 100), B: 0}
	}
	return res
}

func solidImage(w, h int, c RGB) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c.RGBA())
		}
	}
	return img
}

func (c *solidCorpus) NumPhotos() PhotoID {
	return PhotoID(len(c.colors))
}

func (c *solidCorpus) LoadPhoto(id PhotoID, minWidth int) (image.Image, error) {
	c.mutex.Lock()
	c.loads[id]++
	c.mutex.Unlock()
	if c.failing[id] {
		return nil, errors.Errorf("broken photo %d", id)
	}
	return solidImage(c.width, c.height, c.colors[id]), nil
}

func (c *solidCorpus) DuplicateKey(id PhotoID) string {
	if c.keys != nil {
		return c.keys[id]
	}
	return fmt.Sprintf("photo-%d", id)
}

func (c *solidCorpus) WebLink(id PhotoID) string {
	return fmt.Sprintf("http://example.com/%d", id)
}

func (c *solidCorpus) Description(id PhotoID) string {
	return fmt.Sprintf("Photo %d", id)
}

func (c *solidCorpus) numLoads(id PhotoID) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.loads[id]
}

// gradientImage returns an image with a horizontal gray gradient and a red
// vertical component.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := uint8(x * 255 / w)
			img.SetRGBA(x, y, color.RGBA{R: uint8(y * 255 / h), G: g, B: g, A: 0xff})
		}
	}
	return img
}
