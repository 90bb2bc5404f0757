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
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// This file contains functions and types for storing and retrieving the
// result of a matching run.

// LayoutCell is the assignment of a photo to one cell. Image is the index of
// the photo in the FinalImages of the layout.
type LayoutCell struct {
	X           int         `json:"x"`
	Y           int         `json:"y"`
	CandidateID PhotoID     `json:"candidateId"`
	Variant     CropVariant `json:"variant"`
	Mirror      bool        `json:"mirror"`
	Image       int         `json:"image"`
}

// FinalImage is a photo used in the mosaic.
type FinalImage struct {
	CandidateID PhotoID `json:"candidateId"`
	Description string  `json:"description"`
	WebLink     string  `json:"webLink,omitempty"`
}

// MosaicLayout is the stored result of a matching run. It contains enough
// information to render the mosaic again (with a different cell size).
//
// In partitioned mode the cells are stored row by row, in overlapping mode
// in the order they should be drawn.
//
// It also has a version field that is set to the Version variable when
// saving.
type MosaicLayout struct {
	Basepic           string       `json:"basepic"`
	HCells            int          `json:"hcells"`
	VCells            int          `json:"vcells"`
	ResoX             int          `json:"resoX"`
	ResoY             int          `json:"resoY"`
	TileAspectRatio   float64      `json:"tileAspectRatio"`
	TargetAspectRatio float64      `json:"targetAspectRatio"`
	Mode              GridMode     `json:"mode"`
	RunID             string       `json:"runId,omitempty"`
	PoolSize          int          `json:"poolSize"`
	PoolFingerprint   string       `json:"poolFingerprint,omitempty"`
	Version           string       `json:"version"`
	Cells             []LayoutCell `json:"cells"`
	FinalImages       []FinalImage `json:"finalImages"`
}

// Geometry returns the grid geometry stored in the layout.
func (l *MosaicLayout) Geometry() TargetGrid {
	return TargetGrid{
		ResoX:             l.ResoX,
		ResoY:             l.ResoY,
		HCells:            l.HCells,
		VCells:            l.VCells,
		TargetAspectRatio: l.TargetAspectRatio,
		TileAspectRatio:   l.TileAspectRatio,
		Mode:              l.Mode,
	}
}

// LayoutFileName returns the name of the layout file for a run with the
// given root name and target image.
func LayoutFileName(root, basepic string) string {
	return fmt.Sprintf("%s_%s_mosaick.json", root, BaseName(basepic))
}

// PoolFingerprint computes a checksum of a corpus. It depends on the number
// of photos and their duplicate keys and web links.
func PoolFingerprint(corpus PhotoCorpus) string {
	h := sha256.New()
	num := corpus.NumPhotos()
	fmt.Fprintf(h, "%d\n", num)
	var id PhotoID
	for ; id < num; id++ {
		fmt.Fprintf(h, "%s\x00%s\n", corpus.DuplicateKey(id), corpus.WebLink(id))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Layout creates the layout for the last match of the session. The corpus
// is used to look up the descriptions of the photos.
func (s *MatchSession) Layout(basepic string) (*MosaicLayout, error) {
	if s.result == nil {
		return nil, errors.New("No match result in session")
	}
	geometry := s.Grid.Geometry
	layout := &MosaicLayout{
		Basepic:           basepic,
		HCells:            geometry.HCells,
		VCells:            geometry.VCells,
		ResoX:             geometry.ResoX,
		ResoY:             geometry.ResoY,
		TileAspectRatio:   geometry.TileAspectRatio,
		TargetAspectRatio: geometry.TargetAspectRatio,
		Mode:              geometry.Mode,
		RunID:             s.RunID.String(),
		PoolSize:          int(s.Corpus.NumPhotos()),
		PoolFingerprint:   PoolFingerprint(s.Corpus),
	}
	add := func(cell *Cell) {
		id := s.Candidates[cell.Candidate].ID
		layout.Cells = append(layout.Cells, LayoutCell{
			X:           cell.X,
			Y:           cell.Y,
			CandidateID: id,
			Variant:     cell.Variant,
			Mirror:      cell.Mirrored,
			Image:       len(layout.FinalImages),
		})
		layout.FinalImages = append(layout.FinalImages, FinalImage{
			CandidateID: id,
			Description: s.Corpus.Description(id),
			WebLink:     s.Corpus.WebLink(id),
		})
	}
	switch geometry.Mode {
	case Partitioned:
		// renumber in cell order
		for i := range s.Grid.Cells {
			if cell := &s.Grid.Cells[i]; cell.Assigned() {
				add(cell)
			}
		}
	default:
		for _, p := range s.result.Placements {
			add(&s.Grid.Cells[p.Cell])
		}
	}
	return layout, nil
}

// LayoutCheck describes the configuration a loaded layout must fit.
// Zero values are not checked.
type LayoutCheck struct {
	Basepic     string
	Grid        *TargetGrid
	PoolSize    int
	Fingerprint string
}

func floatsDiffer(a, b float64) bool {
	return math.Abs(a-b) > 1e-6
}

// Check tests if the layout is consistent and fits the configuration. It
// returns a *LayoutMismatchError describing the first mismatch.
func (l *MosaicLayout) Check(check LayoutCheck) error {
	if check.Basepic != "" && BaseName(check.Basepic) != BaseName(l.Basepic) {
		return mismatch("basepic", BaseName(check.Basepic), BaseName(l.Basepic))
	}
	if g := check.Grid; g != nil {
		switch {
		case g.HCells != l.HCells:
			return mismatch("hcells", g.HCells, l.HCells)
		case g.VCells != l.VCells:
			return mismatch("vcells", g.VCells, l.VCells)
		case g.Mode != l.Mode:
			return mismatch("mode", g.Mode, l.Mode)
		case floatsDiffer(g.TileAspectRatio, l.TileAspectRatio):
			return mismatch("tileAspectRatio", g.TileAspectRatio, l.TileAspectRatio)
		case floatsDiffer(g.TargetAspectRatio, l.TargetAspectRatio):
			return mismatch("targetAspectRatio", g.TargetAspectRatio, l.TargetAspectRatio)
		}
	}
	if check.PoolSize > 0 && l.PoolSize > 0 && check.PoolSize != l.PoolSize {
		return mismatch("poolSize", check.PoolSize, l.PoolSize)
	}
	if check.Fingerprint != "" && l.PoolFingerprint != "" && check.Fingerprint != l.PoolFingerprint {
		return mismatch("poolFingerprint", check.Fingerprint, l.PoolFingerprint)
	}
	maxX, maxY := l.HCells-1, l.VCells-1
	if l.Mode == Overlapping {
		maxX, maxY = l.HCells*l.ResoX-l.ResoX, l.VCells*l.ResoY-l.ResoY
	}
	for i, cell := range l.Cells {
		field := fmt.Sprintf("cells[%d]", i)
		switch {
		case cell.X < 0 || cell.X > maxX || cell.Y < 0 || cell.Y > maxY:
			return mismatch(field+".position", fmt.Sprintf("≤ (%d, %d)", maxX, maxY),
				fmt.Sprintf("(%d, %d)", cell.X, cell.Y))
		case cell.CandidateID < 0 || (check.PoolSize > 0 && int(cell.CandidateID) >= check.PoolSize):
			return mismatch(field+".candidateId", fmt.Sprintf("< %d", check.PoolSize), cell.CandidateID)
		case cell.Variant < 0 || cell.Variant >= NumCropVariants:
			return mismatch(field+".variant", fmt.Sprintf("< %d", NumCropVariants), cell.Variant)
		case cell.Image < 0 || cell.Image >= len(l.FinalImages):
			return mismatch(field+".image", fmt.Sprintf("< %d", len(l.FinalImages)), cell.Image)
		case l.FinalImages[cell.Image].CandidateID != cell.CandidateID:
			return mismatch(field+".image", cell.CandidateID, l.FinalImages[cell.Image].CandidateID)
		}
	}
	return nil
}

// WriteGobFile writes the layout to a file encoded gob format.
func (l *MosaicLayout) WriteGobFile(path string) error {
	l.Version = Version
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := gob.NewEncoder(f)
	if err := enc.Encode(l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadGobFile reads the layout from the specified file.
// The file must be encoded in gob.
func (l *MosaicLayout) ReadGobFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	return dec.Decode(l)
}

// WriteJSON writes the layout to a file encoded in json format.
func (l *MosaicLayout) WriteJSON(path string) error {
	l.Version = Version
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSONFile reads the layout from the specified file.
// The file must be encoded in json.
func (l *MosaicLayout) ReadJSONFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	return dec.Decode(l)
}

// ReadFile reads the layout from the specified file.
// The read method depends on the file extension which must be either .json
// or .gob.
func (l *MosaicLayout) ReadFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return l.ReadJSONFile(path)
	case ".gob":
		return l.ReadGobFile(path)
	default:
		return errors.Errorf("Unkown file extension for layout file: %s. Should be \".json\" or \".gob\"", ext)
	}
}

// WriteFile writes the layout to a file depending on the file extension
// which must be either .json or .gob.
func (l *MosaicLayout) WriteFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return l.WriteJSON(path)
	case ".gob":
		return l.WriteGobFile(path)
	default:
		return errors.Errorf("Unkown file extension for layout file: %s. Should be \".json\" or \".gob\"", ext)
	}
}

// LoadLayout reads a layout and checks it against check.
func LoadLayout(path string, check LayoutCheck) (*MosaicLayout, error) {
	l := &MosaicLayout{}
	if err := l.ReadFile(path); err != nil {
		return nil, errors.Wrapf(err, "Can't read layout %s", path)
	}
	if err := l.Check(check); err != nil {
		return nil, err
	}
	return l, nil
}
