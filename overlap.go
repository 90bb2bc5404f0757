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
	"sort"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// OverlapOptions are the additional parameters for MatchOverlapping.
type OverlapOptions struct {
	// Limit is the maximal number of photos placed, 0 means no limit.
	Limit int
	// MaxStalledPasses is the number of passes without a new placement after
	// which the search stops. The first pass only proposes cells and is not
	// counted. Defaults to 2.
	MaxStalledPasses int
}

// overlapEntry is the state of one candidate in an overlapping match.
type overlapEntry struct {
	candidate int
	cell      int
	dist      int64
	mirrored  bool
	placed    bool
	dropped   bool
}

// MatchOverlapping places candidates on an overlapping grid such that no
// two placed photos overlap.
//
// The candidates are processed in passes. In each pass a candidate that has
// a proposed cell is placed if no candidate before it (in the current order)
// holds an overlapping cell and the cell was not claimed yet. A placed
// candidate claims all cells overlapping its own. All other candidates
// propose the best unclaimed cell. After each pass the candidates are sorted
// by the distance to their proposed cell.
// The search stops if all candidates are placed (or dropped because no free
// cell is left), the limit is reached or no candidate was placed in
// MaxStalledPasses consecutive passes.
func (s *MatchSession) MatchOverlapping(opts OverlapOptions) (*MatchResult, error) {
	if s.Grid.Geometry.Mode != Overlapping {
		return nil, errors.Errorf("MatchOverlapping requires an overlapping grid, got %v", s.Grid.Geometry.Mode)
	}
	if opts.MaxStalledPasses <= 0 {
		opts.MaxStalledPasses = 2
	}
	limit := opts.Limit
	if limit <= 0 || limit > len(s.Candidates) {
		limit = len(s.Candidates)
	}
	logger := s.logger()
	progress := progressOrIgnore(s.Options.Progress)
	startTime := time.Now()
	logger.WithFields(log.Fields{
		"candidates": len(s.Candidates),
		"cells":      len(s.Grid.Cells),
		"limit":      limit,
	}).Info("Selecting tiles with overlapping cells")

	order := make([]*overlapEntry, len(s.Candidates))
	for i := range order {
		order[i] = &overlapEntry{candidate: i, cell: -1}
	}
	claimed := make([]bool, len(s.Grid.Cells))
	matched, stalled, passes := 0, 0, 0
PassLoop:
	for matched < limit && hasOpenEntries(order) {
		passes++
		before := matched
		// a pass without proposals from an earlier pass can't place anything
		proposed := hasProposals(order)
		for i, entry := range order {
			if entry.placed || entry.dropped {
				continue
			}
			blocks, err := s.Crops.Variants(s.Candidates[entry.candidate].ID)
			if err != nil {
				entry.dropped = true
				continue
			}
			if entry.cell >= 0 && s.canPlace(order[:i], entry, claimed) {
				entry.placed = true
				s.claim(entry.cell, claimed)
				matched++
				progress(matched)
				if matched >= limit {
					break
				}
				continue
			}
			cell, dist, mirrored, ok := s.bestFreeCell(blocks[0], claimed)
			if !ok {
				logger.WithField("candidate", entry.candidate).Debug("No free cell left")
				entry.cell = -1
				entry.dropped = true
				continue
			}
			entry.cell, entry.dist, entry.mirrored = cell, dist, mirrored
		}
		sort.SliceStable(order, func(i, j int) bool {
			a, b := order[i], order[j]
			if (a.cell < 0) != (b.cell < 0) {
				return a.cell >= 0
			}
			return a.dist < b.dist
		})
		logger.WithFields(log.Fields{"pass": passes, "matched": matched}).Debug("Pass done")
		switch {
		case matched == before && proposed:
			stalled++
			if stalled >= opts.MaxStalledPasses {
				break PassLoop
			}
		case matched > before:
			stalled = 0
		}
	}

	placed := make([]*overlapEntry, 0, matched)
	for _, entry := range order {
		if entry.placed {
			placed = append(placed, entry)
		}
	}
	// worst matches first, better ones are drawn on top of them
	sort.SliceStable(placed, func(i, j int) bool {
		return placed[i].dist > placed[j].dist
	})
	result := &MatchResult{RunID: s.RunID}
	lumErrs := make([]float64, 0, len(placed))
	scores := make([]float64, 0, len(placed))
	for _, entry := range placed {
		cell := &s.Grid.Cells[entry.cell]
		cell.Candidate = entry.candidate
		cell.Variant = CropCenter
		cell.Mirrored = entry.mirrored
		cell.Score = entry.dist
		s.placed[entry.candidate] = true
		result.Placements = append(result.Placements, Placement{
			Cell:      cell.Index,
			Candidate: entry.candidate,
			Photo:     s.Candidates[entry.candidate].ID,
			Variant:   CropCenter,
			Mirrored:  entry.mirrored,
			Score:     entry.dist,
		})
		lumErrs = append(lumErrs, abs(s.Candidates[entry.candidate].Luminance-cell.Luminance))
		scores = append(scores, float64(entry.dist))
	}
	result.Stats = s.stats(lumErrs, scores, 0, startTime)
	result.Stats.Passes = passes
	logger.WithFields(log.Fields{
		"placed":  len(placed),
		"passes":  passes,
		"elapsed": result.Stats.Elapsed,
	}).Info("Done placing overlapping tiles")
	s.result = result
	return result, nil
}

func hasProposals(entries []*overlapEntry) bool {
	for _, entry := range entries {
		if !entry.placed && !entry.dropped && entry.cell >= 0 {
			return true
		}
	}
	return false
}

func hasOpenEntries(entries []*overlapEntry) bool {
	for _, entry := range entries {
		if !entry.placed && !entry.dropped {
			return true
		}
	}
	return false
}

// canPlace returns true if the proposed cell of entry is not claimed and
// doesn't overlap a cell held by one of the entries in before.
func (s *MatchSession) canPlace(before []*overlapEntry, entry *overlapEntry, claimed []bool) bool {
	if claimed[entry.cell] {
		return false
	}
	geometry := s.Grid.Geometry
	cell := &s.Grid.Cells[entry.cell]
	for _, other := range before {
		if other.cell < 0 || other.dropped {
			continue
		}
		if cell.Overlaps(&s.Grid.Cells[other.cell], geometry.ResoX, geometry.ResoY) {
			return false
		}
	}
	return true
}

func (s *MatchSession) claim(cellIndex int, claimed []bool) {
	geometry := s.Grid.Geometry
	cell := &s.Grid.Cells[cellIndex]
	for i := range s.Grid.Cells {
		if !claimed[i] && cell.Overlaps(&s.Grid.Cells[i], geometry.ResoX, geometry.ResoY) {
			claimed[i] = true
		}
	}
}

func (s *MatchSession) bestFreeCell(block PixelBlock, claimed []bool) (int, int64, bool, bool) {
	bestCell, bestDist, mirrored := -1, NoBound, false
	for i := range s.Grid.Cells {
		if claimed[i] {
			continue
		}
		pix := s.Grid.Cells[i].Pix
		if diff := CumDiff(pix, block, bestDist); bestCell < 0 || diff < bestDist {
			bestCell, bestDist, mirrored = i, diff, false
		}
		if s.Options.Mirror {
			if diff := CumDiffMirror(pix, block, bestDist); diff < bestDist {
				bestCell, bestDist, mirrored = i, diff, true
			}
		}
	}
	return bestCell, bestDist, mirrored, bestCell >= 0
}
