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
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type renderFlags struct {
	runFlags
	minSize string
	out     string
	png     bool
}

var renderOpts renderFlags

var renderCmd = &cobra.Command{
	Use:   "render <layout file>",
	Short: "Render a saved layout",
	Long: `Render composes the mosaic described by a layout file without matching again.
The size of the output is given by --cellsize or by --min, the smallest
acceptable size of the whole mosaic.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := renderOpts.loadConfig(cmd)
		if err != nil {
			return err
		}
		corpus, err := openCorpus(c)
		if err != nil {
			return err
		}
		layout, err := mosaick.LoadLayout(args[0], mosaick.LayoutCheck{
			PoolSize:    int(corpus.NumPhotos()),
			Fingerprint: mosaick.PoolFingerprint(corpus),
		})
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"layout": args[0],
			"cells":  len(layout.Cells),
			"runId":  layout.RunID,
		}).Info("Loaded layout")
		if renderOpts.minSize != "" {
			w, h, dimErr := mosaick.ParseDimensions(renderOpts.minSize)
			if dimErr != nil {
				return dimErr
			}
			c.CellSize = mosaick.CellSizeFor(layout, w, h)
			log.WithField("cellsize", c.CellSize).Info("Computed cell size")
		}
		out := renderOpts.out
		if out == "" {
			out = mosaick.OutputFileName(c.OutputRoot, layout.Basepic, layout.HCells, layout.VCells, c.CellSize)
		}
		if renderOpts.png {
			out = withExt(out, ".png")
		}
		return render(layout, corpus, c, out)
	},
}

func init() {
	renderOpts.register(renderCmd)
	flags := renderCmd.Flags()
	flags.StringVar(&renderOpts.minSize, "min", "", "Minimal size of the mosaic, \"WxH\"")
	flags.StringVarP(&renderOpts.out, "out", "o", "", "Output file")
	flags.BoolVar(&renderOpts.png, "png", false, "Write a png instead of a jpeg")
	rootCmd.AddCommand(renderCmd)
}
