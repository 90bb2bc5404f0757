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

package main

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/FabianWe/mosaick"
	"github.com/FabianWe/mosaick/internal/config"
	"github.com/FabianWe/mosaick/photoset"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// openCorpus returns the photo list corpus if a list is configured and the
// directory corpus otherwise.
func openCorpus(c *config.Config) (mosaick.PhotoCorpus, error) {
	switch {
	case c.Photos.List != "":
		photos, err := photoset.ReadPhotoList(c.Photos.List)
		if err != nil {
			return nil, err
		}
		set, err := photoset.NewFlickrSet(photos, c.Photos.CacheRoot)
		if err != nil {
			return nil, err
		}
		set.Download = c.Photos.Download
		set.DupeOwnersOK = c.Photos.DupeOwnersOK
		log.WithFields(log.Fields{"list": c.Photos.List, "photos": len(photos)}).Info("Read photo list")
		return set, nil
	case c.Photos.Dir != "":
		set, err := photoset.GenDirSet(c.Photos.Dir, c.Photos.Recursive, nil)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"dir": set.Root, "photos": len(set.Paths)}).Info("Found photos")
		return set, nil
	default:
		return nil, errors.New("No photos given, use --photos or --list")
	}
}

func loadTarget(path string) (image.Image, error) {
	img, err := photoset.DecodeFile(path)
	if err != nil {
		return nil, mosaick.NewDecodeError(mosaick.NoPhotoID, "target", err)
	}
	return img, nil
}

// showBars is false if progress is logged instead of drawn as bars.
func showBars() bool {
	return !noBars && term.IsTerminal(int(os.Stdout.Fd()))
}

// newProgressBar returns a bar with count steps and a ProgressFunc that
// updates it. Without bars the bar is nil and progress is logged every
// tenth of count.
func newProgressBar(count int, description string) (*progressbar.ProgressBar, mosaick.ProgressFunc) {
	if !showBars() {
		step := count / 10
		if step < 1 {
			step = 1
		}
		return nil, mosaick.LoggerProgressFunc(description, count, step)
	}
	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
	return bar, func(num int) {
		bar.Set(num)
	}
}

func finishBar(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}
	bar.Finish()
	fmt.Fprintln(os.Stderr)
}

func saveImage(file string, img image.Image, jpgQuality int) error {
	var encode func(f *os.File) error
	ext := filepath.Ext(file)
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		encode = func(f *os.File) error { return jpeg.Encode(f, img, &jpeg.Options{Quality: jpgQuality}) }
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	default:
		return errors.Errorf("Unsupported file type: %s, expected .jpg or .png", ext)
	}
	outFile, outErr := os.Create(file)
	if outErr != nil {
		return outErr
	}
	if encErr := encode(outFile); encErr != nil {
		outFile.Close()
		return encErr
	}
	return outFile.Close()
}

// withExt replaces the extension of file.
func withExt(file, ext string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ext
}

func writeImageMap(file string, layout *mosaick.MosaicLayout, imageName string, cellsize int) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := mosaick.WriteImageMap(f, layout, imageName, cellsize); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// render composes the layout and writes the image and its html map.
func render(layout *mosaick.MosaicLayout, corpus mosaick.PhotoCorpus, c *config.Config, out string) error {
	bar, progress := newProgressBar(len(layout.Cells), "Composing")
	img, err := mosaick.ComposeMosaic(layout, corpus, mosaick.ComposeOptions{
		CellSize: c.CellSize,
		Resizer:  mosaick.NewNfntResizer(mosaick.GetInterP(c.Interpolation)),
		Progress: progress,
	})
	finishBar(bar)
	if err != nil {
		return err
	}
	if err := saveImage(out, img, c.JPEGQuality); err != nil {
		return errors.Wrapf(err, "Can't write %s", out)
	}
	htmlFile := withExt(out, ".html")
	if err := writeImageMap(htmlFile, layout, filepath.Base(out), c.CellSize); err != nil {
		return errors.Wrapf(err, "Can't write %s", htmlFile)
	}
	log.WithFields(log.Fields{"image": out, "map": htmlFile}).Info("Mosaic written")
	return nil
}
