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
	"image/color"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// RenderPriorityMap visualizes the order in which the cells of a partitioned
// grid are matched. The first cell is drawn white, later cells fade to
// their own pixels, the last matched cell is drawn unchanged.
func RenderPriorityMap(grid *Grid) (*image.RGBA, error) {
	geometry := grid.Geometry
	if geometry.Mode != Partitioned {
		return nil, errors.Errorf("Priority map requires a partitioned grid, got %v", geometry.Mode)
	}
	bounds := image.Rect(0, 0, geometry.Width(), geometry.Height())
	res := image.NewRGBA(bounds)
	draw.Draw(res, bounds, image.Black, image.Point{}, draw.Src)
	n := len(grid.Priority)
	for rank, cellIndex := range grid.Priority {
		alpha := 1.0
		if n > 1 {
			alpha = float64(rank) / float64(n-1)
		}
		blend := func(c uint8) uint8 {
			return uint8(alpha*float64(c) + 255*(1-alpha) + 0.5)
		}
		cell := &grid.Cells[cellIndex]
		x0, y0 := cell.X*geometry.ResoX, cell.Y*geometry.ResoY
		for py := 0; py < cell.Pix.Height; py++ {
			for px := 0; px < cell.Pix.Width; px++ {
				p := cell.Pix.At(px, py)
				res.SetRGBA(x0+px, y0+py, color.RGBA{R: blend(p.R), G: blend(p.G), B: blend(p.B), A: 0xff})
			}
		}
	}
	return res, nil
}
