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

	"github.com/pkg/errors"
)

var (
	// ErrEmptyCandidatePool is returned if no usable candidate photo was found
	// during sampling.
	ErrEmptyCandidatePool = errors.New("No usable candidate photos")

	// ErrIncompleteMatch is returned by a match if at least one cell could not
	// be assigned a candidate. The result contains the failures.
	ErrIncompleteMatch = errors.New("Not all cells could be assigned a photo")
)

// DecodeError is returned if a photo (or the target image) could not be
// loaded or decoded. Stage describes in which step the error occurred, for
// example "sample" or "crop".
// For candidate photos this error is never fatal, the photo is skipped.
type DecodeError struct {
	Photo PhotoID
	Stage string
	Err   error
}

// NewDecodeError returns a new decode error.
func NewDecodeError(photo PhotoID, stage string, err error) *DecodeError {
	return &DecodeError{Photo: photo, Stage: stage, Err: err}
}

func (err *DecodeError) Error() string {
	if err.Photo == NoPhotoID {
		return fmt.Sprintf("Can't decode target image (%s): %v", err.Stage, err.Err)
	}
	return fmt.Sprintf("Can't decode photo %d (%s): %v", err.Photo, err.Stage, err.Err)
}

// Cause returns the wrapped error, it is used by errors.Cause.
func (err *DecodeError) Cause() error {
	return err.Err
}

// Unwrap returns the wrapped error.
func (err *DecodeError) Unwrap() error {
	return err.Err
}

// NoCandidateFoundError is reported for a cell if widening the luminance
// tolerance covered the whole candidate pool and still no candidate was
// acceptable.
type NoCandidateFoundError struct {
	Cell      int
	X, Y      int
	Tolerance int
}

func (err *NoCandidateFoundError) Error() string {
	return fmt.Sprintf("No candidate found for cell %d at (%d, %d), tolerance %d",
		err.Cell, err.X, err.Y, err.Tolerance)
}

// LayoutMismatchError is returned if a loaded layout does not fit the
// current target image, grid or candidate pool.
type LayoutMismatchError struct {
	Field     string
	Want, Got string
}

func (err *LayoutMismatchError) Error() string {
	return fmt.Sprintf("Layout mismatch in %s: expected %s, got %s", err.Field, err.Want, err.Got)
}

func mismatch(field string, want, got interface{}) *LayoutMismatchError {
	return &LayoutMismatchError{
		Field: field,
		Want:  fmt.Sprint(want),
		Got:   fmt.Sprint(got),
	}
}
