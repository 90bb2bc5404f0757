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
	"math"
)

const (
	// NoBound can be used as upper bound in CumDiff to compute the complete sum.
	NoBound int64 = math.MaxInt64
)

func sqDiff(a, b RGB) int64 {
	dr := int64(a.R) - int64(b.R)
	dg := int64(a.G) - int64(b.G)
	db := int64(a.B) - int64(b.B)
	return dr*dr + dg*dg + db*db
}

// CumDiff returns the sum of squared channel differences between cell and
// photo. Both blocks must have the same size.
//
// The summation stops as soon as the partial sum exceeds upperBound, in this
// case the returned value is > upperBound but maybe smaller than the complete
// sum. Use NoBound to always get the complete sum.
func CumDiff(cell, photo PixelBlock, upperBound int64) int64 {
	var sum int64
	for i, c := range cell.Pix {
		sum += sqDiff(c, photo.Pix[i])
		if sum > upperBound {
			return sum
		}
	}
	return sum
}

// CumDiffMirror works as CumDiff but compares cell with the horizontally
// mirrored photo, that is each row of photo is reversed.
func CumDiffMirror(cell, photo PixelBlock, upperBound int64) int64 {
	var sum int64
	w := cell.Width
	for y := 0; y < cell.Height; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			sum += sqDiff(cell.Pix[row+x], photo.Pix[row+w-1-x])
			if sum > upperBound {
				return sum
			}
		}
	}
	return sum
}

// Edginess returns the contrast score of a block: for each pixel the squared
// differences to its (up to four) axis neighbours, divided by 255.
// Higher values mean more detail.
func Edginess(b PixelBlock) float64 {
	var sum float64
	w, h := b.Width, b.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			p := b.Pix[i]
			if y > 0 {
				sum += float64(sqDiff(b.Pix[i-w], p)) / 255.0
			}
			if y < h-1 {
				sum += float64(sqDiff(b.Pix[i+w], p)) / 255.0
			}
			if x > 0 {
				sum += float64(sqDiff(b.Pix[i-1], p)) / 255.0
			}
			if x < w-1 {
				sum += float64(sqDiff(b.Pix[i+1], p)) / 255.0
			}
		}
	}
	return sum
}
