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
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxInt is the maximal value of an int.
	MaxInt = int(^uint(0) >> 1)
)

// ProgressFunc is a function that is used to inform a caller about the progress
// of a called function.
// For example if we process thousands of images we might wish to know
// how far the call is and give feedback to the user.
// The called method calls the process function after each iteration.
type ProgressFunc func(num int)

// ProgressIgnore is a ProgressFunc that does nothing.
func ProgressIgnore(num int) {}

func progressOrIgnore(f ProgressFunc) ProgressFunc {
	if f == nil {
		return ProgressIgnore
	}
	return f
}

// LoggerProgressFunc is a parameterized ProgressFunc that logs to log.
// The output describes the progress (how many of how many objects processed).
// Log messages may have an addition prefix. max is the total number of elements
// to process and step describes how often to print to the log (for example
// step = 100 every 100 items).
func LoggerProgressFunc(prefix string, max, step int) ProgressFunc {
	return func(num int) {
		if step == 0 {
			return
		}
		if !(step < 0 || num%step == 0) {
			return
		}
		if max == 0 {
			return
		}
		percent := (float64(num) / float64(max)) * 100.0
		if percent > 100.0 {
			percent = 100.0
		}
		if prefix == "" {
			log.Printf("Progress: %d of %d (%.1f%%)", num, max, percent)
		} else {
			log.Printf("%s: %d of %d (%.1f%%)", prefix, num, max, percent)
		}
	}
}

// ParseDimensions parses a string of the form "AxB" where A and B are positive
// integers. A single integer "A" is accepted as well and returned as A, A.
func ParseDimensions(s string) (int, int, error) {
	split := strings.Split(s, "x")
	if len(split) == 1 {
		n, err := strconv.Atoi(strings.TrimSpace(split[0]))
		if err != nil {
			return -1, -1, errors.Wrapf(err, "Invalid dimension format: %s", s)
		}
		if n <= 0 {
			return -1, -1, errors.Errorf("Dimensions must be positive, got %d", n)
		}
		return n, n, nil
	}
	if len(split) != 2 {
		return -1, -1, errors.Errorf("Invalid dimension format: %s. Expect \"AxB\"", s)
	}
	first, second := strings.TrimSpace(split[0]), strings.TrimSpace(split[1])
	firstInt, firstErr := strconv.Atoi(first)
	if firstErr != nil {
		return -1, -1, errors.Wrapf(firstErr, "Invalid dimension format: %s", s)
	}
	secondInt, secondErr := strconv.Atoi(second)
	if secondErr != nil {
		return -1, -1, errors.Wrapf(secondErr, "Invalid dimension format: %s", s)
	}
	if firstInt <= 0 || secondInt <= 0 {
		return -1, -1, errors.Errorf("Dimensions must be positive, got %d and %d",
			firstInt, secondInt)
	}
	return firstInt, secondInt, nil
}

// BaseName returns the name of an image file without directory and without
// a .jpg, .png or .gif extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif":
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// OutputFileName returns the default name of a rendered mosaic.
func OutputFileName(root, basepic string, hcells, vcells, cellsize int) string {
	return fmt.Sprintf("%s_%s_%d_x_%d_c%d.jpg", root, BaseName(basepic), hcells, vcells, cellsize)
}
