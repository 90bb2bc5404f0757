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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertNoOverlap(t *testing.T, session *MatchSession, placements []Placement) {
	t.Helper()
	geometry := session.Grid.Geometry
	for i, p := range placements {
		for _, q := range placements[:i] {
			a, b := &session.Grid.Cells[p.Cell], &session.Grid.Cells[q.Cell]
			assert.False(t, a.Overlaps(b, geometry.ResoX, geometry.ResoY),
				"cells (%d, %d) and (%d, %d) overlap", a.X, a.Y, b.X, b.Y)
		}
	}
}

func TestMatchOverlappingIdentical(t *testing.T) {
	red := RGB{R: 255}
	corpus := newSolidCorpus([]RGB{red, red})
	opts := DefaultMatchOptions()
	session := newTestSession(t, solidImage(8, 8, red),
		GridOptions{ResoX: 2, ResoY: 2, MaxImages: 16, Mode: Overlapping}, corpus, opts)

	result, err := session.MatchOverlapping(OverlapOptions{})
	require.NoError(t, err)
	require.Len(t, result.Placements, 2)
	assertNoOverlap(t, session, result.Placements)
	assert.NotEqual(t, result.Placements[0].Photo, result.Placements[1].Photo)
	// placing the second photo requires a pass of its own
	assert.GreaterOrEqual(t, result.Stats.Passes, 3)
	cells := map[int]bool{}
	for _, p := range result.Placements {
		cells[p.Cell] = true
		assert.Equal(t, int64(0), p.Score)
	}
	assert.True(t, cells[0], "first photo should get the first cell")
}

func TestMatchOverlappingSingleStalledPass(t *testing.T) {
	red := RGB{R: 255}
	corpus := newSolidCorpus([]RGB{red, red})
	session := newTestSession(t, solidImage(8, 8, red),
		GridOptions{ResoX: 2, ResoY: 2, MaxImages: 16, Mode: Overlapping}, corpus, DefaultMatchOptions())

	result, err := session.MatchOverlapping(OverlapOptions{MaxStalledPasses: 1})
	require.NoError(t, err)
	require.Len(t, result.Placements, 2)
	assertNoOverlap(t, session, result.Placements)
}

func TestMatchOverlappingLimit(t *testing.T) {
	corpus := newSolidCorpus(distinctColors(30))
	session := newTestSession(t, gradientImage(24, 24),
		GridOptions{ResoX: 2, ResoY: 2, MaxImages: 36, Mode: Overlapping}, corpus, DefaultMatchOptions())
	result, err := session.MatchOverlapping(OverlapOptions{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, result.Placements, 5)
	assertNoOverlap(t, session, result.Placements)
	for i := 1; i < len(result.Placements); i++ {
		assert.GreaterOrEqual(t, result.Placements[i-1].Score, result.Placements[i].Score)
	}
}

func TestMatchOverlappingFull(t *testing.T) {
	// 4×4 target with 2×2 photos: at most 4 photos fit
	corpus := newSolidCorpus(distinctColors(10))
	session := newTestSession(t, gradientImage(4, 4),
		GridOptions{ResoX: 2, ResoY: 2, MaxImages: 4, Mode: Overlapping}, corpus, DefaultMatchOptions())
	require.Len(t, session.Grid.Cells, 9)
	result, err := session.MatchOverlapping(OverlapOptions{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Placements), 4)
	assert.NotEmpty(t, result.Placements)
	assertNoOverlap(t, session, result.Placements)

	layout, err := session.Layout("target.png")
	require.NoError(t, err)
	assert.Equal(t, Overlapping, layout.Mode)
	assert.Len(t, layout.Cells, len(result.Placements))
	require.NoError(t, layout.Check(LayoutCheck{PoolSize: 10}))
}
