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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func randomBlock(r *rand.Rand, w, h int) PixelBlock {
	b := NewPixelBlock(w, h)
	for i := range b.Pix {
		b.Pix[i] = RGB{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256))}
	}
	return b
}

func mirrorBlock(b PixelBlock) PixelBlock {
	res := NewPixelBlock(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			res.Pix[y*b.Width+x] = b.At(b.Width-1-x, y)
		}
	}
	return res
}

func TestCumDiffEarlyExit(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		a, b := randomBlock(r, 5, 4), randomBlock(r, 5, 4)
		full := CumDiff(a, b, NoBound)
		bound := r.Int63n(full + 1)
		bounded := CumDiff(a, b, bound)
		assert.GreaterOrEqual(t, bounded, bound)
		if bounded <= bound {
			assert.Equal(t, full, bounded)
		} else {
			assert.LessOrEqual(t, bounded, full)
			assert.Greater(t, full, bound)
		}
		mirrorFull := CumDiffMirror(a, b, NoBound)
		mirrorBounded := CumDiffMirror(a, b, bound)
		if mirrorFull > bound {
			assert.Greater(t, mirrorBounded, bound)
		} else {
			assert.Equal(t, mirrorFull, mirrorBounded)
		}
	}
}

func TestCumDiffMirror(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	a := randomBlock(r, 7, 3)
	assert.Equal(t, int64(0), CumDiffMirror(a, mirrorBlock(a), NoBound))
	assert.Equal(t, CumDiff(a, mirrorBlock(a), NoBound), CumDiffMirror(a, a, NoBound))
}

func TestEdginess(t *testing.T) {
	uniform := NewPixelBlock(4, 4)
	assert.Equal(t, 0.0, Edginess(uniform))

	pair := NewPixelBlock(2, 1)
	pair.Pix[1] = RGB{255, 255, 255}
	// both pixels have one neighbour with a difference of 3 · 255²
	assert.InDelta(t, 2*3*255.0, Edginess(pair), 1e-9)

	r := rand.New(rand.NewSource(7))
	noisy := randomBlock(r, 4, 4)
	assert.Greater(t, Edginess(noisy), Edginess(uniform))
}

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 0.0, RGB{}.Luminance(), 1e-9)
	assert.InDelta(t, 1.0, RGB{255, 255, 255}.Luminance(), 1e-9)
	assert.InDelta(t, 0.3086, RGB{R: 255}.Luminance(), 1e-9)
	_, s, v := RGB{R: 255}.HSV()
	assert.InDelta(t, 1.0, s, 1e-9)
	assert.InDelta(t, 1.0, v, 1e-9)
	assert.InDelta(t, 0.0, RGB{100, 100, 100}.Saturation(), 1e-9)
}
