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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Quality controls the initial luminance tolerance of the search. A higher
// tolerance compares more candidates per cell.
type Quality int

const (
	// Normal is the default quality.
	Normal Quality = iota
	// Draft is faster than normal with slightly worse results.
	Draft
	// Accurate is slower than normal with slightly better results.
	Accurate
)

// ToleranceStep is added to the tolerance each time no candidate was found.
const ToleranceStep = 5

func (q Quality) String() string {
	switch q {
	case Normal:
		return "Normal"
	case Draft:
		return "Draft"
	case Accurate:
		return "Accurate"
	default:
		return fmt.Sprintf("Quality(%d)", q)
	}
}

// InitialTolerance returns the luminance tolerance (in buckets) a search
// starts with.
func (q Quality) InitialTolerance() int {
	switch q {
	case Draft:
		return 5
	case Accurate:
		return 40
	default:
		return 20
	}
}

// ParseQuality parses "draft", "normal" or "accurate".
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draft":
		return Draft, nil
	case "", "normal":
		return Normal, nil
	case "accurate":
		return Accurate, nil
	default:
		return Normal, errors.Errorf("Unknown quality \"%s\", expect draft, normal or accurate", s)
	}
}

// MatchOptions are the parameters of a matching run.
type MatchOptions struct {
	Quality Quality
	// DupesAllowed allows candidates to be placed more than once. The
	// duplicate distance is enforced anyway.
	DupesAllowed bool
	// MinDupeDist is the minimal grid distance between two placements with
	// the same duplicate key.
	MinDupeDist int
	// UseVariants compares all three crop variants instead of only the
	// center crop.
	UseVariants bool
	// Mirror also compares the mirrored photos.
	Mirror bool
	// AllowDupeViolations places a photo that violates the duplicate
	// distance if no other photo is left. Violations are reported in the
	// result.
	AllowDupeViolations bool
	// NumRoutines is the number of goroutines scanning candidates for one
	// cell. Values ≤ 1 scan sequentially.
	NumRoutines int
	// Progress is called after each cell, may be nil.
	Progress ProgressFunc
	// Resizer is used to scale photos, if nil DefaultResizer is used.
	Resizer ImageResizer
}

// DefaultMatchOptions returns the default options.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		Quality:     Normal,
		MinDupeDist: 8,
		Mirror:      true,
		NumRoutines: 1,
	}
}

// Placement is one photo placed in a cell.
type Placement struct {
	Cell      int
	Candidate int
	Photo     PhotoID
	Variant   CropVariant
	Mirrored  bool
	Score     int64
}

// DupeViolation describes a placement that violates the duplicate distance.
type DupeViolation struct {
	Cell  int
	Key   string
	Dist2 int
}

// MatchStats contains some information about a matching run.
type MatchStats struct {
	Matched      int
	Failed       int
	MaxLumError  float64
	MaxScore     float64
	MeanScore    float64
	Passes       int
	Elapsed      time.Duration
	PhotoFetches int
}

// MatchResult is the result of a matching run.
type MatchResult struct {
	RunID      uuid.UUID
	Placements []Placement
	Failures   []*NoCandidateFoundError
	Violations []DupeViolation
	Stats      MatchStats
}

// MatchSession contains all state of one matching run.
//
// Cells refer to candidates by their index in Candidates (the candidates
// sorted by luminance), candidates refer to photos by their PhotoID.
type MatchSession struct {
	RunID      uuid.UUID
	Grid       *Grid
	Corpus     PhotoCorpus
	Index      *LuminanceIndex
	Candidates []CandidatePhoto
	Crops      *CropProvider
	Dupes      *DuplicateTracker
	Options    MatchOptions

	minDupeDist2 int
	placed       []bool
	result       *MatchResult
}

// NewMatchSession creates a new session for a grid and candidate pool.
// If the pool is empty ErrEmptyCandidatePool is returned.
func NewMatchSession(grid *Grid, pool []CandidatePhoto, corpus PhotoCorpus, opts MatchOptions) (*MatchSession, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyCandidatePool
	}
	index := NewLuminanceIndex(pool)
	geometry := grid.Geometry
	useVariants := opts.UseVariants && geometry.Mode == Partitioned
	crops := NewCropProvider(corpus, opts.Resizer, geometry.ResoX, geometry.ResoY,
		geometry.TileAspectRatio, useVariants)
	return &MatchSession{
		RunID:        uuid.New(),
		Grid:         grid,
		Corpus:       corpus,
		Index:        index,
		Candidates:   index.Candidates,
		Crops:        crops,
		Dupes:        NewDuplicateTracker(),
		Options:      opts,
		minDupeDist2: opts.MinDupeDist * opts.MinDupeDist,
		placed:       make([]bool, len(index.Candidates)),
	}, nil
}

// Result returns the result of the last match, nil if no match was run.
func (s *MatchSession) Result() *MatchResult {
	return s.result
}

func (s *MatchSession) logger() *log.Entry {
	return log.WithField("run", s.RunID.String())
}

// match is the best match for a cell found by a scan.
type match struct {
	candidate int
	variant   CropVariant
	mirrored  bool
	score     int64
}

// scoreCandidate compares the variants of one candidate with a cell and
// returns the better one of best and the candidate.
func (s *MatchSession) scoreCandidate(cell *Cell, candidate int, blocks []PixelBlock,
	best *match, found bool) (match, bool) {
	var res match
	if found {
		res = *best
	}
	for v, block := range blocks {
		bound := NoBound
		if found {
			bound = res.score
		}
		diff := CumDiff(cell.Pix, block, bound)
		if !found || diff < res.score {
			res = match{candidate: candidate, variant: CropVariant(v), score: diff}
			found = true
		}
		if s.Options.Mirror {
			diff = CumDiffMirror(cell.Pix, block, res.score)
			if diff < res.score {
				res = match{candidate: candidate, variant: CropVariant(v), mirrored: true, score: diff}
			}
		}
	}
	return res, found
}

// eligible returns true if the candidate may be placed in the cell.
func (s *MatchSession) eligible(cell *Cell, candidate int, ignoreDist bool) bool {
	if s.placed[candidate] {
		return false
	}
	if ignoreDist || s.minDupeDist2 <= 0 {
		return true
	}
	key := s.Candidates[candidate].DupeKey
	return s.Dupes.MinDist2(key, image.Pt(cell.X, cell.Y)) >= s.minDupeDist2
}

// scan finds the best candidate in [start, end) for the cell.
func (s *MatchSession) scan(cell *Cell, start, end int, ignoreDist bool) (match, bool, error) {
	if s.Options.NumRoutines > 1 {
		return s.scanParallel(cell, start, end, ignoreDist)
	}
	var best match
	found := false
	for j := start; j < end; j++ {
		if !s.eligible(cell, j, ignoreDist) {
			continue
		}
		blocks, err := s.Crops.Variants(s.Candidates[j].ID)
		if err != nil {
			continue
		}
		if err := checkBlocks(cell, j, blocks); err != nil {
			return match{}, false, err
		}
		best, found = s.scoreCandidate(cell, j, blocks, &best, found)
	}
	return best, found, nil
}

// checkBlocks returns an error if a crop does not have the size of the cell.
func checkBlocks(cell *Cell, candidate int, blocks []PixelBlock) error {
	for v, block := range blocks {
		if block.Width != cell.Pix.Width || block.Height != cell.Pix.Height {
			return errors.Errorf("Crop %d of candidate %d is %dx%d, cell %d is %dx%d", v, candidate,
				block.Width, block.Height, cell.Index, cell.Pix.Width, cell.Pix.Height)
		}
	}
	return nil
}

type scanJob struct {
	candidate int
	blocks    []PixelBlock
}

// scanParallel splits the eligible candidates into chunks that are scored
// concurrently. The chunk results are merged in order, so the result is the
// same as the one of the sequential scan.
func (s *MatchSession) scanParallel(cell *Cell, start, end int, ignoreDist bool) (match, bool, error) {
	jobs := make([]scanJob, 0, end-start)
	for j := start; j < end; j++ {
		if !s.eligible(cell, j, ignoreDist) {
			continue
		}
		blocks, err := s.Crops.Variants(s.Candidates[j].ID)
		if err != nil {
			continue
		}
		jobs = append(jobs, scanJob{candidate: j, blocks: blocks})
	}
	numChunks := s.Options.NumRoutines
	if numChunks > len(jobs) {
		numChunks = len(jobs)
	}
	if numChunks == 0 {
		return match{}, false, nil
	}
	chunkSize := (len(jobs) + numChunks - 1) / numChunks
	type chunkResult struct {
		best  match
		found bool
	}
	results := make([]chunkResult, numChunks)
	var group errgroup.Group
	for c := 0; c < numChunks; c++ {
		c := c
		group.Go(func() error {
			from, to := c*chunkSize, (c+1)*chunkSize
			if to > len(jobs) {
				to = len(jobs)
			}
			var best match
			found := false
			for _, job := range jobs[from:to] {
				if err := checkBlocks(cell, job.candidate, job.blocks); err != nil {
					return err
				}
				best, found = s.scoreCandidate(cell, job.candidate, job.blocks, &best, found)
			}
			results[c] = chunkResult{best: best, found: found}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return match{}, false, err
	}
	var best match
	found := false
	for _, r := range results {
		if r.found && (!found || r.best.score < best.score) {
			best, found = r.best, true
		}
	}
	return best, found, nil
}

// commit assigns the match to the cell. This is the only place where the
// state of the session changes during a partitioned match.
func (s *MatchSession) commit(cell *Cell, m match) Placement {
	candidate := s.Candidates[m.candidate]
	if !s.Options.DupesAllowed {
		s.placed[m.candidate] = true
	}
	s.Dupes.Add(candidate.DupeKey, image.Pt(cell.X, cell.Y))
	cell.Candidate = m.candidate
	cell.Variant = m.variant
	cell.Mirrored = m.mirrored
	cell.Score = m.score
	return Placement{
		Cell:      cell.Index,
		Candidate: m.candidate,
		Photo:     candidate.ID,
		Variant:   m.variant,
		Mirrored:  m.mirrored,
		Score:     m.score,
	}
}

// MatchTiles assigns a candidate to each cell of a partitioned grid.
//
// Cells are processed in priority order. For each cell the candidates with a
// similar luminance are compared, if no candidate is acceptable the
// tolerance is increased until the whole pool was searched. Cells without a
// candidate are reported in the Failures of the result and
// ErrIncompleteMatch is returned together with the result.
func (s *MatchSession) MatchTiles() (*MatchResult, error) {
	if s.Grid.Geometry.Mode != Partitioned {
		return nil, errors.Errorf("MatchTiles requires a partitioned grid, got %v", s.Grid.Geometry.Mode)
	}
	logger := s.logger()
	progress := progressOrIgnore(s.Options.Progress)
	logger.WithFields(log.Fields{
		"candidates": len(s.Candidates),
		"cells":      len(s.Grid.Cells),
		"quality":    s.Options.Quality,
	}).Info("Selecting tiles")
	startTime := time.Now()
	result := &MatchResult{RunID: s.RunID}
	lumErrs := make([]float64, 0, len(s.Grid.Cells))
	scores := make([]float64, 0, len(s.Grid.Cells))
	for num, cellIndex := range s.Grid.Priority {
		cell := &s.Grid.Cells[cellIndex]
		placement, failure, violation, err := s.matchCell(cell)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't match cell %d", cell.Index)
		}
		switch {
		case failure != nil:
			logger.WithError(failure).Warn("No candidate found")
			result.Failures = append(result.Failures, failure)
		default:
			result.Placements = append(result.Placements, placement)
			lumErrs = append(lumErrs, abs(s.Candidates[placement.Candidate].Luminance-cell.Luminance))
			scores = append(scores, float64(placement.Score))
			if violation != nil {
				logger.WithFields(log.Fields{
					"cell": violation.Cell,
					"key":  violation.Key,
				}).Warn("Duplicate distance violated, no other candidate left")
				result.Violations = append(result.Violations, *violation)
			}
		}
		progress(num + 1)
	}
	result.Stats = s.stats(lumErrs, scores, len(result.Failures), startTime)
	result.Stats.Passes = 1
	logger.WithFields(log.Fields{
		"matched":  result.Stats.Matched,
		"failed":   result.Stats.Failed,
		"maxLum":   fmt.Sprintf("%.1f", result.Stats.MaxLumError*256),
		"maxDiff":  result.Stats.MaxScore,
		"meanDiff": fmt.Sprintf("%.1f", result.Stats.MeanScore),
		"elapsed":  result.Stats.Elapsed,
	}).Info("Done main pass")
	s.result = result
	if len(result.Failures) > 0 {
		return result, errors.Wrapf(ErrIncompleteMatch, "%d of %d cells", len(result.Failures), len(s.Grid.Cells))
	}
	return result, nil
}

func (s *MatchSession) matchCell(cell *Cell) (Placement, *NoCandidateFoundError, *DupeViolation, error) {
	bucket := LuminanceBucket(cell.Luminance)
	tolerance := s.Options.Quality.InitialTolerance()
	for {
		start, end, full := s.Index.Range(bucket, tolerance)
		m, ok, err := s.scan(cell, start, end, false)
		if err != nil {
			return Placement{}, nil, nil, err
		}
		if ok {
			return s.commit(cell, m), nil, nil, nil
		}
		if full {
			break
		}
		tolerance += ToleranceStep
	}
	if s.Options.AllowDupeViolations && s.minDupeDist2 > 0 {
		m, ok, err := s.scan(cell, 0, s.Index.Len(), true)
		if err != nil {
			return Placement{}, nil, nil, err
		}
		if ok {
			key := s.Candidates[m.candidate].DupeKey
			violation := &DupeViolation{
				Cell:  cell.Index,
				Key:   key,
				Dist2: s.Dupes.MinDist2(key, image.Pt(cell.X, cell.Y)),
			}
			return s.commit(cell, m), nil, violation, nil
		}
	}
	return Placement{}, &NoCandidateFoundError{Cell: cell.Index, X: cell.X, Y: cell.Y, Tolerance: tolerance}, nil, nil
}

func (s *MatchSession) stats(lumErrs, scores []float64, failed int, startTime time.Time) MatchStats {
	stats := MatchStats{
		Matched:      len(scores),
		Failed:       failed,
		Elapsed:      time.Since(startTime),
		PhotoFetches: s.Crops.Fetches(),
	}
	if len(scores) > 0 {
		stats.MaxLumError = floats.Max(lumErrs)
		stats.MaxScore = floats.Max(scores)
		stats.MeanScore = floats.Sum(scores) / float64(len(scores))
	}
	return stats
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
