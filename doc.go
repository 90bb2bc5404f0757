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

// Package mosaick builds photo mosaics: a target image is divided into a grid
// of cells and each cell is assigned one photo from a (usually large) pool of
// candidate photos such that the photo matches the cell as good as possible.
//
// Candidates are indexed by their luminance, for each cell only candidates
// with a similar luminance are compared pixel by pixel. The difference sum
// is computed with an early exit as soon as the current best score for the
// cell is exceeded.
//
// The result of a matching run is a MosaicLayout, it can be stored on the
// filesystem and loaded again later to render the mosaic with a different
// cell size without running the (expensive) search again.
//
// It ships with an executable program (cmd/mosaick) to build and render
// mosaics from a directory of images or a Flickr photo list.
package mosaick

// Version is the version of the library, it is stored in saved layouts.
var Version = "0.2.0"
