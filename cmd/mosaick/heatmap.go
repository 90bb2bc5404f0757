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

	"github.com/FabianWe/mosaick"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type heatmapFlags struct {
	runFlags
	out string
}

var heatmap heatmapFlags

var heatmapCmd = &cobra.Command{
	Use:   "heatmap <target image>",
	Short: "Show the order in which cells are matched",
	Long: `Heatmap divides the target image into cells like build does and draws the
cells in the order they are matched: the first cell is white, the last one is
drawn unchanged. Cells with many details are matched first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := heatmap.loadConfig(cmd)
		if err != nil {
			return err
		}
		maxImages := c.MaxImages
		if maxImages == 0 {
			corpus, corpusErr := openCorpus(c)
			if corpusErr != nil {
				return errors.Wrap(corpusErr, "Use --max or give the photos")
			}
			maxImages = c.ImageBudget(int(corpus.NumPhotos()))
		}
		img, err := loadTarget(args[0])
		if err != nil {
			return err
		}
		resoX, resoY := c.TileReso()
		grid, err := mosaick.BuildGrid(img, mosaick.GridOptions{
			ResoX:     resoX,
			ResoY:     resoY,
			MaxImages: maxImages,
			Mode:      mosaick.Partitioned,
			Resizer:   mosaick.NewNfntResizer(mosaick.GetInterP(c.Interpolation)),
		})
		if err != nil {
			return err
		}
		priority, err := mosaick.RenderPriorityMap(grid)
		if err != nil {
			return err
		}
		out := heatmap.out
		if out == "" {
			out = fmt.Sprintf("%s_%s_priority.png", c.OutputRoot, mosaick.BaseName(args[0]))
		}
		if err := saveImage(out, priority, c.JPEGQuality); err != nil {
			return err
		}
		log.WithField("image", out).Info("Priority map written")
		return nil
	},
}

func init() {
	heatmap.register(heatmapCmd)
	heatmapCmd.Flags().StringVarP(&heatmap.out, "out", "o", "", "Output file")
	rootCmd.AddCommand(heatmapCmd)
}
