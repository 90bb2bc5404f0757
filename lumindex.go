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
)

// NumBuckets is the number of luminance buckets in a LuminanceIndex.
const NumBuckets = 256

// minRangeSize is the minimal number of candidates a range should contain,
// smaller ranges are widened by half of it in each direction.
const minRangeSize = 256

// LuminanceBucket returns the bucket (0 - 255) of a luminance value.
func LuminanceBucket(l float64) int {
	b := int(l * 255)
	switch {
	case b < 0:
		return 0
	case b >= NumBuckets:
		return NumBuckets - 1
	default:
		return b
	}
}

// LuminanceIndex contains the candidates sorted by luminance and a table
// that maps each bucket to the first position in the sorted candidates with
// a luminance bucket ≥ bucket.
type LuminanceIndex struct {
	Candidates []CandidatePhoto
	table      [NumBuckets]int
}

// NewLuminanceIndex builds the index, the candidates are copied.
func NewLuminanceIndex(candidates []CandidatePhoto) *LuminanceIndex {
	sorted := make([]CandidatePhoto, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Luminance < sorted[j].Luminance
	})
	idx := &LuminanceIndex{Candidates: sorted}
	n := 0
	for j, c := range sorted {
		b := LuminanceBucket(c.Luminance)
		for ; n <= b; n++ {
			idx.table[n] = j
		}
	}
	for ; n < NumBuckets; n++ {
		idx.table[n] = len(sorted)
	}
	return idx
}

// Len returns the number of candidates.
func (idx *LuminanceIndex) Len() int {
	return len(idx.Candidates)
}

// First returns the first position with a bucket ≥ bucket.
func (idx *LuminanceIndex) First(bucket int) int {
	return idx.table[bucket]
}

// Range returns the half-open range [start, end) of candidates with a
// luminance bucket in [bucket - tolerance, bucket + tolerance].
// If the range contains less than 256 candidates it is widened by 128
// positions on each side. full is true if the range covers all candidates.
func (idx *LuminanceIndex) Range(bucket, tolerance int) (start, end int, full bool) {
	n := len(idx.Candidates)
	lo, hi := bucket-tolerance, bucket+tolerance
	if lo < 0 {
		lo = 0
	}
	start = idx.table[lo]
	if hi >= NumBuckets-1 {
		end = n
	} else {
		end = idx.table[hi+1]
	}
	if end-start < minRangeSize {
		start -= minRangeSize / 2
		end += minRangeSize / 2
	}
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	full = start == 0 && end == n
	return
}
