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

	log "github.com/sirupsen/logrus"
)

const (
	// BorderThreshold is the maximal (normalized) squared color distance
	// between the centers of two opposite edges of a photo such that the
	// photo is considered to have a uniform border.
	BorderThreshold = 0.007

	// MaxPhotoAspect is the aspect ratio (in both directions) from which on
	// photos are rejected when borders are rejected.
	MaxPhotoAspect = 2.0
)

// CandidatePhoto is one photo in the candidate pool. It stores only the
// luminance of the photo, pixel data is computed later by a CropProvider.
type CandidatePhoto struct {
	ID        PhotoID
	Luminance float64
	DupeKey   string
}

// SampleOptions are the parameters for SamplePhotos.
type SampleOptions struct {
	// Limit is the maximal number of photos sampled, 0 means all photos.
	Limit int
	// RejectBorders rejects photos with a uniform border or an aspect ratio
	// of more than 2:1.
	RejectBorders bool
	// MinWidth is passed to the corpus when photos are loaded.
	MinWidth int
	// Progress is called after each photo, may be nil.
	Progress ProgressFunc
}

func normDist(a, b RGB) float64 {
	return float64(sqDiff(a, b)) / (255.0 * 255.0)
}

// HasBorder returns true if the centers of the top and bottom edge or the
// centers of the left and right edge have (nearly) the same color.
func HasBorder(img image.Image) bool {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return false
	}
	at := func(x, y int) RGB {
		return ConvertRGB(img.At(bounds.Min.X+x, bounds.Min.Y+y))
	}
	top, bottom := at(w/2, 0), at(w/2, h-1)
	left, right := at(0, h/2), at(w-1, h/2)
	return normDist(top, bottom) <= BorderThreshold || normDist(left, right) <= BorderThreshold
}

// badAspect returns true if one side of the image is at least twice the
// size of the other one.
func badAspect(bounds image.Rectangle) bool {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	return w/h >= MaxPhotoAspect || h/w >= MaxPhotoAspect
}

// SamplePhotos computes the luminance of all photos in the corpus (up to
// opts.Limit).
// Photos that can't be loaded are logged and skipped. If no photo remains
// ErrEmptyCandidatePool is returned.
func SamplePhotos(corpus PhotoCorpus, opts SampleOptions) ([]CandidatePhoto, error) {
	progress := progressOrIgnore(opts.Progress)
	numPhotos := int(corpus.NumPhotos())
	if opts.Limit > 0 && opts.Limit < numPhotos {
		numPhotos = opts.Limit
	}
	log.WithField("photos", numPhotos).Info("Sampling source images")
	res := make([]CandidatePhoto, 0, numPhotos)
	rejected := 0
	for i := 0; i < numPhotos; i++ {
		id := PhotoID(i)
		img, loadErr := corpus.LoadPhoto(id, opts.MinWidth)
		switch {
		case loadErr != nil:
			err := NewDecodeError(id, "sample", loadErr)
			log.WithFields(log.Fields{log.ErrorKey: err, "photo": id}).Warn("Problem with image, skipping")
		case img.Bounds().Empty():
			log.WithField("photo", id).Warn("Empty image, skipping")
		case opts.RejectBorders && (badAspect(img.Bounds()) || HasBorder(img)):
			rejected++
			log.WithField("photo", id).Debug("Rejecting image with border")
		default:
			res = append(res, CandidatePhoto{
				ID:        id,
				Luminance: ComputeAverageColor(img).Luminance(),
				DupeKey:   corpus.DuplicateKey(id),
			})
		}
		progress(i + 1)
	}
	log.WithFields(log.Fields{
		"accepted": len(res),
		"rejected": rejected,
	}).Info("Done sampling")
	if len(res) == 0 {
		return nil, ErrEmptyCandidatePool
	}
	return res, nil
}
