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
	"math"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// GridMode describes how the target image is divided into cells.
type GridMode int

const (
	// Partitioned divides the target into non-overlapping cells, each cell
	// gets exactly one photo.
	Partitioned GridMode = iota
	// Overlapping creates a cell at each pixel offset of the (scaled) target,
	// photos are placed such that they don't overlap each other.
	Overlapping
)

func (mode GridMode) String() string {
	switch mode {
	case Partitioned:
		return "Partitioned"
	case Overlapping:
		return "Overlapping"
	default:
		return fmt.Sprintf("GridMode(%d)", mode)
	}
}

// TargetGrid is the geometry of a mosaic.
//
// HCells × VCells is the number of tiles, ResoX × ResoY is the number of
// pixels each cell is compared with. TargetAspectRatio is height / width of
// the target image, TileAspectRatio is width / height of a tile.
type TargetGrid struct {
	ResoX, ResoY      int
	HCells, VCells    int
	TargetAspectRatio float64
	TileAspectRatio   float64
	Mode              GridMode
}

// Width returns the width in pixels the target is scaled to.
func (g TargetGrid) Width() int {
	return g.ResoX * g.HCells
}

// Height returns the height in pixels the target is scaled to.
func (g TargetGrid) Height() int {
	return g.ResoY * g.VCells
}

// GridOptions are the parameters for building a grid.
type GridOptions struct {
	ResoX, ResoY int
	// MaxImages is the maximal number of cells.
	MaxImages int
	Mode      GridMode
	// Resizer is used to scale the target, if nil DefaultResizer is used.
	Resizer ImageResizer
}

func (opts GridOptions) resizer() ImageResizer {
	if opts.Resizer == nil {
		return DefaultResizer
	}
	return opts.Resizer
}

func maxOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ComputeGrid computes the grid geometry for a target image with the given
// dimensions.
//
// The number of cells is chosen such that the aspect ratio of the target is
// kept and hcells · vcells ≤ MaxImages. If the target doesn't have enough
// pixels for the requested resolution the resolution is reduced (but never
// below 1), so resoX · hcells ≤ width and resoY · vcells ≤ height always hold.
func ComputeGrid(width, height int, opts GridOptions) (TargetGrid, error) {
	if width <= 0 || height <= 0 {
		return TargetGrid{}, errors.Errorf("Invalid target size %dx%d", width, height)
	}
	if opts.ResoX <= 0 || opts.ResoY <= 0 {
		return TargetGrid{}, errors.Errorf("Invalid tile resolution %dx%d", opts.ResoX, opts.ResoY)
	}
	if opts.MaxImages <= 0 {
		return TargetGrid{}, errors.Errorf("Maximal number of images must be positive, got %d", opts.MaxImages)
	}
	aspect := float64(height) / float64(width)
	tileAspect := float64(opts.ResoX) / float64(opts.ResoY)
	hf := math.Sqrt(float64(opts.MaxImages) / (aspect * tileAspect))
	vf := hf * aspect * tileAspect
	hcells, vcells := int(hf+0.5), int(vf+0.5)
	if hcells*vcells > opts.MaxImages {
		hcells, vcells = int(hf), int(vf)
	}
	hcells, vcells = maxOne(hcells), maxOne(vcells)
	for hcells*vcells > opts.MaxImages {
		if hcells > vcells {
			hcells--
		} else {
			vcells--
		}
	}
	resoX, resoY := opts.ResoX, opts.ResoY
	if resoX*hcells > width {
		resoX = maxOne(width / hcells)
		resoY = maxOne(int(float64(resoX) / tileAspect))
	} else if resoY*vcells > height {
		resoY = maxOne(height / vcells)
		resoX = maxOne(int(float64(resoY) * tileAspect))
	}
	// the derived resolution may still be too large on the other axis
	if resoX*hcells > width {
		resoX = maxOne(width / hcells)
	}
	if resoY*vcells > height {
		resoY = maxOne(height / vcells)
	}
	// not even one pixel per cell
	if hcells > width {
		hcells = width
	}
	if vcells > height {
		vcells = height
	}
	if resoX != opts.ResoX || resoY != opts.ResoY {
		log.WithFields(log.Fields{
			"requested": fmt.Sprintf("%dx%d", opts.ResoX, opts.ResoY),
			"reso":      fmt.Sprintf("%dx%d", resoX, resoY),
		}).Info("Reducing resolution due to lack of resolution in target image")
	}
	return TargetGrid{
		ResoX:             resoX,
		ResoY:             resoY,
		HCells:            hcells,
		VCells:            vcells,
		TargetAspectRatio: aspect,
		TileAspectRatio:   tileAspect,
		Mode:              opts.Mode,
	}, nil
}

// Cell is one position in the grid.
//
// Candidate refers to the index of the assigned candidate in the match
// session (-1 if no candidate was assigned yet). The assignment fields are
// written once by the matcher.
type Cell struct {
	Index      int
	X, Y       int
	Luminance  float64
	Saturation float64
	Pix        PixelBlock
	Edginess   float64

	Candidate int
	Variant   CropVariant
	Mirrored  bool
	Score     int64
}

// Assigned returns true if a candidate was assigned to the cell.
func (c *Cell) Assigned() bool {
	return c.Candidate >= 0
}

// Overlaps returns true if the footprints of two cells with the same
// resolution intersect.
func (c *Cell) Overlaps(other *Cell, resoX, resoY int) bool {
	switch {
	case c.X >= other.X+resoX, c.X+resoX <= other.X:
		return false
	case c.Y >= other.Y+resoY, c.Y+resoY <= other.Y:
		return false
	default:
		return true
	}
}

// Grid contains the geometry and all cells of a target image.
//
// Cells are stored row by row. Priority contains the cell indices sorted by
// edginess (descending), it is only computed in partitioned mode.
type Grid struct {
	Geometry TargetGrid
	Cells    []Cell
	Priority []int
}

// At returns the cell at grid position (x, y) in partitioned mode.
func (g *Grid) At(x, y int) *Cell {
	return &g.Cells[y*g.Geometry.HCells+x]
}

// BuildGrid computes the grid for the target image.
//
// The target is scaled twice: once to hcells × vcells pixels (luminance and
// saturation of the cells are taken from this image) and once to
// hcells·resoX × vcells·resoY pixels for the pixel blocks.
func BuildGrid(target image.Image, opts GridOptions) (*Grid, error) {
	bounds := target.Bounds()
	geometry, geomErr := ComputeGrid(bounds.Dx(), bounds.Dy(), opts)
	if geomErr != nil {
		return nil, geomErr
	}
	resizer := opts.resizer()
	coarse := resizer.Resize(uint(geometry.HCells), uint(geometry.VCells), target)
	full := resizer.Resize(uint(geometry.Width()), uint(geometry.Height()), target)
	log.WithFields(log.Fields{
		"cells": fmt.Sprintf("%dx%d", geometry.HCells, geometry.VCells),
		"reso":  fmt.Sprintf("%dx%d", geometry.ResoX, geometry.ResoY),
		"mode":  geometry.Mode,
	}).Info("Setting up cells")
	grid := &Grid{Geometry: geometry}
	switch geometry.Mode {
	case Partitioned:
		grid.Cells = partitionedCells(geometry, coarse, full)
		grid.Priority = priorityOrder(grid.Cells)
	case Overlapping:
		grid.Cells = overlappingCells(geometry, coarse, full)
	default:
		return nil, errors.Errorf("Unknown grid mode %v", geometry.Mode)
	}
	return grid, nil
}

func newCell(index, x, y int, coarseColor RGB, pix PixelBlock) Cell {
	return Cell{
		Index:      index,
		X:          x,
		Y:          y,
		Luminance:  coarseColor.Luminance(),
		Saturation: coarseColor.Saturation(),
		Pix:        pix,
		Candidate:  -1,
	}
}

func partitionedCells(geometry TargetGrid, coarse, full image.Image) []Cell {
	cb, fb := coarse.Bounds(), full.Bounds()
	resoX, resoY := geometry.ResoX, geometry.ResoY
	cells := make([]Cell, 0, geometry.HCells*geometry.VCells)
	for y := 0; y < geometry.VCells; y++ {
		for x := 0; x < geometry.HCells; x++ {
			c := ConvertRGB(coarse.At(cb.Min.X+x, cb.Min.Y+y))
			area := image.Rect(x*resoX, y*resoY, (x+1)*resoX, (y+1)*resoY).Add(fb.Min)
			cell := newCell(len(cells), x, y, c, BlockFromImage(full, area))
			cell.Edginess = Edginess(cell.Pix)
			cells = append(cells, cell)
		}
	}
	return cells
}

// overlappingCells creates one cell for each offset where a complete
// resoX × resoY block fits into the scaled target.
func overlappingCells(geometry TargetGrid, coarse, full image.Image) []Cell {
	cb, fb := coarse.Bounds(), full.Bounds()
	resoX, resoY := geometry.ResoX, geometry.ResoY
	maxX, maxY := geometry.Width()-resoX, geometry.Height()-resoY
	cells := make([]Cell, 0, (maxX+1)*(maxY+1))
	for y := 0; y <= maxY; y++ {
		cy := y / resoY
		if cy >= geometry.VCells {
			cy = geometry.VCells - 1
		}
		for x := 0; x <= maxX; x++ {
			cx := x / resoX
			if cx >= geometry.HCells {
				cx = geometry.HCells - 1
			}
			c := ConvertRGB(coarse.At(cb.Min.X+cx, cb.Min.Y+cy))
			area := image.Rect(x, y, x+resoX, y+resoY).Add(fb.Min)
			cells = append(cells, newCell(len(cells), x, y, c, BlockFromImage(full, area)))
		}
	}
	return cells
}

func priorityOrder(cells []Cell) []int {
	order := make([]int, len(cells))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return cells[order[i]].Edginess > cells[order[j]].Edginess
	})
	return order
}
