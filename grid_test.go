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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGrid(t *testing.T) {
	tests := []struct {
		width, height, resoX, resoY, maxImages int
		hcells, vcells, wantX, wantY           int
	}{
		{100, 100, 4, 4, 625, 25, 25, 4, 4},
		{2, 2, 1, 1, 4, 2, 2, 1, 1},
		{10, 10, 7, 7, 100, 10, 10, 1, 1},
		{200, 100, 7, 7, 800, 40, 20, 5, 5},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%dx%d-%d", tc.width, tc.height, tc.maxImages), func(t *testing.T) {
			g, err := ComputeGrid(tc.width, tc.height, GridOptions{ResoX: tc.resoX, ResoY: tc.resoY, MaxImages: tc.maxImages})
			require.NoError(t, err)
			assert.Equal(t, tc.hcells, g.HCells)
			assert.Equal(t, tc.vcells, g.VCells)
			assert.Equal(t, tc.wantX, g.ResoX)
			assert.Equal(t, tc.wantY, g.ResoY)
		})
	}
}

func TestComputeGridResolutionSafety(t *testing.T) {
	sizes := []int{1, 3, 17, 64, 100, 333, 1024}
	resos := [][2]int{{1, 1}, {4, 4}, {7, 7}, {8, 4}, {3, 6}}
	budgets := []int{1, 4, 100, 625, 5000}
	for _, w := range sizes {
		for _, h := range sizes {
			for _, reso := range resos {
				for _, max := range budgets {
					g, err := ComputeGrid(w, h, GridOptions{ResoX: reso[0], ResoY: reso[1], MaxImages: max})
					require.NoError(t, err)
					msg := fmt.Sprintf("%dx%d reso %v max %d: %+v", w, h, reso, max, g)
					assert.LessOrEqual(t, g.ResoX*g.HCells, w, msg)
					assert.LessOrEqual(t, g.ResoY*g.VCells, h, msg)
					assert.LessOrEqual(t, g.HCells*g.VCells, max, msg)
					assert.GreaterOrEqual(t, g.ResoX, 1, msg)
					assert.GreaterOrEqual(t, g.ResoY, 1, msg)
				}
			}
		}
	}
}

func TestComputeGridInvalid(t *testing.T) {
	_, err := ComputeGrid(0, 10, GridOptions{ResoX: 1, ResoY: 1, MaxImages: 10})
	assert.Error(t, err)
	_, err = ComputeGrid(10, 10, GridOptions{ResoX: 0, ResoY: 1, MaxImages: 10})
	assert.Error(t, err)
	_, err = ComputeGrid(10, 10, GridOptions{ResoX: 1, ResoY: 1})
	assert.Error(t, err)
}

func TestBuildGridPartitioned(t *testing.T) {
	target := gradientImage(40, 20)
	grid, err := BuildGrid(target, GridOptions{ResoX: 2, ResoY: 2, MaxImages: 50, Resizer: nearest})
	require.NoError(t, err)
	geometry := grid.Geometry
	require.Equal(t, geometry.HCells*geometry.VCells, len(grid.Cells))
	require.Len(t, grid.Priority, len(grid.Cells))
	for i, cell := range grid.Cells {
		assert.Equal(t, i, cell.Index)
		assert.Equal(t, geometry.ResoX*geometry.ResoY, len(cell.Pix.Pix))
		assert.Equal(t, -1, cell.Candidate)
		assert.True(t, cell.Luminance >= 0 && cell.Luminance <= 1)
	}
	for i := 1; i < len(grid.Priority); i++ {
		assert.GreaterOrEqual(t, grid.Cells[grid.Priority[i-1]].Edginess, grid.Cells[grid.Priority[i]].Edginess)
	}
	assert.Same(t, &grid.Cells[geometry.HCells+1], grid.At(1, 1))
}

func TestBuildGridOverlapping(t *testing.T) {
	target := solidImage(8, 8, RGB{R: 200})
	grid, err := BuildGrid(target, GridOptions{ResoX: 2, ResoY: 2, MaxImages: 16, Mode: Overlapping, Resizer: nearest})
	require.NoError(t, err)
	assert.Equal(t, 4, grid.Geometry.HCells)
	assert.Equal(t, 4, grid.Geometry.VCells)
	assert.Len(t, grid.Cells, 7*7)
	assert.Nil(t, grid.Priority)
	last := grid.Cells[len(grid.Cells)-1]
	assert.Equal(t, 6, last.X)
	assert.Equal(t, 6, last.Y)
}

func TestCellsOverlap(t *testing.T) {
	a := &Cell{X: 0, Y: 0}
	assert.True(t, a.Overlaps(&Cell{X: 1, Y: 1}, 2, 2))
	assert.False(t, a.Overlaps(&Cell{X: 2, Y: 0}, 2, 2))
	assert.False(t, a.Overlaps(&Cell{X: 0, Y: 2}, 2, 2))
	assert.True(t, a.Overlaps(a, 2, 2))
}
