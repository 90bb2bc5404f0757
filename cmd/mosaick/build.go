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
	"github.com/FabianWe/mosaick"
	"github.com/FabianWe/mosaick/internal/config"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type buildFlags struct {
	runFlags
	overlap   bool
	hlimit    int
	load      bool
	layout    string
	out       string
	png       bool
	allowDist bool
}

var build buildFlags

var buildCmd = &cobra.Command{
	Use:   "build <target image>",
	Short: "Match photos to the target image and render the mosaic",
	Long: `Build samples all photos, divides the target image into cells and assigns a
photo to each cell. The assignment is saved as a layout file next to the
rendered mosaic. With --load an existing layout is rendered instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := build.loadConfig(cmd)
		if err != nil {
			return err
		}
		return runBuild(c, args[0])
	},
}

func init() {
	build.register(buildCmd)
	flags := buildCmd.Flags()
	flags.BoolVar(&build.overlap, "hmode", false, "Experimental mode with overlapping tiles")
	flags.IntVar(&build.hlimit, "hlimit", 0, "Maximal number of photos placed with --hmode, 0 means no limit")
	flags.BoolVar(&build.load, "load", false, "Render the saved layout instead of matching")
	flags.StringVar(&build.layout, "layout", "", "Layout file, .json or .gob (default <root>_<target>_mosaick.json)")
	flags.StringVarP(&build.out, "out", "o", "", "Output file (default <root>_<target>_<h>_x_<v>_c<cellsize>.jpg)")
	flags.BoolVar(&build.png, "png", false, "Write a png instead of a jpeg")
	flags.BoolVar(&build.allowDist, "force", false, "Violate the duplicate distance instead of leaving a cell empty")
	rootCmd.AddCommand(buildCmd)
}

func (f *buildFlags) gridOptions(c *config.Config, corpus mosaick.PhotoCorpus) mosaick.GridOptions {
	resoX, resoY := c.TileReso()
	mode := mosaick.Partitioned
	if f.overlap {
		mode = mosaick.Overlapping
	}
	return mosaick.GridOptions{
		ResoX:     resoX,
		ResoY:     resoY,
		MaxImages: c.ImageBudget(int(corpus.NumPhotos())),
		Mode:      mode,
		Resizer:   mosaick.NewNfntResizer(mosaick.GetInterP(c.Interpolation)),
	}
}

// tileMinWidth is the photo width needed to crop a tile without upscaling.
func tileMinWidth(opts mosaick.GridOptions) int {
	if opts.ResoY > opts.ResoX {
		return opts.ResoY
	}
	return opts.ResoX
}

func (f *buildFlags) layoutFile(c *config.Config, target string) string {
	if f.layout != "" {
		return f.layout
	}
	return mosaick.LayoutFileName(c.OutputRoot, target)
}

func (f *buildFlags) outputFile(c *config.Config, target string, layout *mosaick.MosaicLayout) string {
	out := f.out
	if out == "" {
		out = mosaick.OutputFileName(c.OutputRoot, target, layout.HCells, layout.VCells, c.CellSize)
	}
	if f.png {
		out = withExt(out, ".png")
	}
	return out
}

func (f *buildFlags) match(c *config.Config, corpus mosaick.PhotoCorpus, target string, gridOpts mosaick.GridOptions) (*mosaick.MosaicLayout, error) {
	img, err := loadTarget(target)
	if err != nil {
		return nil, err
	}
	grid, err := mosaick.BuildGrid(img, gridOpts)
	if err != nil {
		return nil, err
	}

	bar, progress := newProgressBar(int(corpus.NumPhotos()), "Sampling")
	candidates, err := mosaick.SamplePhotos(corpus, mosaick.SampleOptions{
		Limit:         c.SampleLimit,
		RejectBorders: c.RejectBorders,
		MinWidth:      tileMinWidth(gridOpts),
		Progress:      progress,
	})
	finishBar(bar)
	if err != nil {
		return nil, err
	}

	opts := c.MatchOptions()
	opts.AllowDupeViolations = f.allowDist
	session, err := mosaick.NewMatchSession(grid, candidates, corpus, opts)
	if err != nil {
		return nil, err
	}
	var matchErr error
	if gridOpts.Mode == mosaick.Overlapping {
		bar, session.Options.Progress = newProgressBar(len(candidates), "Placing")
		_, matchErr = session.MatchOverlapping(mosaick.OverlapOptions{Limit: f.hlimit})
	} else {
		bar, session.Options.Progress = newProgressBar(len(grid.Cells), "Matching")
		_, matchErr = session.MatchTiles()
	}
	finishBar(bar)
	switch {
	case errors.Cause(matchErr) == mosaick.ErrIncompleteMatch:
		log.WithError(matchErr).Warn("Some cells stay empty")
	case matchErr != nil:
		return nil, matchErr
	}
	return session.Layout(target)
}

func runBuild(c *config.Config, target string) error {
	corpus, err := openCorpus(c)
	if err != nil {
		return err
	}
	gridOpts := build.gridOptions(c, corpus)
	layoutFile := build.layoutFile(c, target)
	var layout *mosaick.MosaicLayout
	if build.load {
		img, err := loadTarget(target)
		if err != nil {
			return err
		}
		bounds := img.Bounds()
		geometry, err := mosaick.ComputeGrid(bounds.Dx(), bounds.Dy(), gridOpts)
		if err != nil {
			return err
		}
		layout, err = mosaick.LoadLayout(layoutFile, mosaick.LayoutCheck{
			Basepic:     target,
			Grid:        &geometry,
			PoolSize:    int(corpus.NumPhotos()),
			Fingerprint: mosaick.PoolFingerprint(corpus),
		})
		if err != nil {
			return err
		}
		log.WithField("layout", layoutFile).Info("Loaded layout")
	} else {
		layout, err = build.match(c, corpus, target, gridOpts)
		if err != nil {
			return err
		}
		if err := layout.WriteFile(layoutFile); err != nil {
			return errors.Wrapf(err, "Can't write layout %s", layoutFile)
		}
		log.WithField("layout", layoutFile).Info("Layout saved")
	}
	return render(layout, corpus, c, build.outputFile(c, target, layout))
}
