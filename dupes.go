// Copyright 2019 Fabian Wenzelmann
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

// intSquaredDist returns the squared euclidean distance of two points.
func intSquaredDist(p1, p2 image.Point) int {
	dx, dy := p1.X-p2.X, p1.Y-p2.Y
	return dx*dx + dy*dy
}

// DuplicateTracker stores for each duplicate key the grid positions the key
// was placed at. Positions are only added, never removed.
type DuplicateTracker struct {
	placements map[string][]image.Point
}

// NewDuplicateTracker returns an empty tracker.
func NewDuplicateTracker() *DuplicateTracker {
	return &DuplicateTracker{placements: make(map[string][]image.Point)}
}

// Add records a placement of key at p.
func (t *DuplicateTracker) Add(key string, p image.Point) {
	t.placements[key] = append(t.placements[key], p)
}

// Placements returns all positions key was placed at (in order).
func (t *DuplicateTracker) Placements(key string) []image.Point {
	return t.placements[key]
}

// NumKeys returns the number of keys with at least one placement.
func (t *DuplicateTracker) NumKeys() int {
	return len(t.placements)
}

// MinDist2 returns the minimal squared distance from p to a placement of
// key. If key was never placed MaxInt is returned.
func (t *DuplicateTracker) MinDist2(key string, p image.Point) int {
	currentMin := MaxInt
	for _, cmp := range t.placements[key] {
		dist := intSquaredDist(p, cmp)
		if dist < currentMin {
			currentMin = dist
		}
	}
	return currentMin
}
