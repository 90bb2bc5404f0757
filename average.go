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
	"image"
)

// AverageColor descibes the average of several RGB colors.
type AverageColor RGB

// ComputeAverageColor computes the average color of an image.
func ComputeAverageColor(img image.Image) AverageColor {
	bounds := img.Bounds()

	// don't do anything for empty images
	if bounds.Empty() {
		return AverageColor{}
	}
	var r, g, b uint64
	numPixels := uint64(bounds.Dx() * bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgb := ConvertRGB(img.At(x, y))
			r += uint64(rgb.R)
			g += uint64(rgb.G)
			b += uint64(rgb.B)
		}
	}
	r /= numPixels
	g /= numPixels
	b /= numPixels
	return AverageColor{R: uint8(r), G: uint8(g), B: uint8(b)}
}

// Luminance returns the Haeberli luminance of the average color.
func (c AverageColor) Luminance() float64 {
	return RGB(c).Luminance()
}

// PixelBlock is a block of width × height pixels stored row by row.
type PixelBlock struct {
	Width, Height int
	Pix           []RGB
}

// NewPixelBlock returns a block of the given size with all pixels black.
func NewPixelBlock(width, height int) PixelBlock {
	return PixelBlock{
		Width:  width,
		Height: height,
		Pix:    make([]RGB, width*height),
	}
}

// BlockFromImage copies the pixels of img inside r into a new block.
// r must be contained in the bounds of img.
func BlockFromImage(img image.Image, r image.Rectangle) PixelBlock {
	block := NewPixelBlock(r.Dx(), r.Dy())
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			block.Pix[i] = ConvertRGB(img.At(x, y))
			i++
		}
	}
	return block
}

// At returns the pixel in column x and row y.
func (b PixelBlock) At(x, y int) RGB {
	return b.Pix[y*b.Width+x]
}
