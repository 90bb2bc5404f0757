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
	"os"

	"github.com/FabianWe/mosaick"
	"github.com/FabianWe/mosaick/internal/config"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
	noBars     bool
)

var rootCmd = &cobra.Command{
	Use:     "mosaick",
	Short:   "Create photo mosaics",
	Version: mosaick.Version,
	Long: `mosaick reconstructs a target image from a grid of small tiles, each tile a
cropped and possibly mirrored photo from a large pool. The assignment of photos
to tiles is saved as a layout file and can be rendered again at a different
size without repeating the search.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output")
	rootCmd.PersistentFlags().BoolVar(&noBars, "nobars", false, "Log progress instead of drawing progress bars")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// runFlags are the flags shared by the commands that read the
// configuration. Only flags that are set override the configuration.
type runFlags struct {
	reso          string
	maxImages     int
	cellsize      int
	quality       string
	flops         bool
	variations    bool
	dupes         bool
	minDupeDist   int
	rejectBorders bool
	sampleLimit   int
	routines      int
	jpegQuality   int
	root          string
	photoDir      string
	photoList     string
	recursive     bool
	cacheRoot     string
	noDownload    bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.reso, "reso", "", "Tile resolution in pixels, \"X\" or \"XxY\"")
	flags.IntVar(&f.maxImages, "max", 0, "Maximal number of tiles, 0 means a quarter of the pool")
	flags.IntVar(&f.cellsize, "cellsize", 0, "Width of a tile in the rendered mosaic")
	flags.StringVar(&f.quality, "quality", "", "Search quality: draft, normal or accurate")
	flags.BoolVar(&f.flops, "flops", true, "Also try horizontally mirrored photos")
	flags.BoolVar(&f.variations, "variations", false, "Try leading and trailing crops of each photo")
	flags.BoolVar(&f.dupes, "dupes", true, "Allow a photo to be placed more than once")
	flags.IntVar(&f.minDupeDist, "mindupedist", 0, "Minimal distance in cells between photos with the same key")
	flags.BoolVar(&f.rejectBorders, "noborders", false, "Reject photos with a uniform border or an extreme aspect ratio")
	flags.IntVar(&f.sampleLimit, "limit", 0, "Maximal number of photos sampled, 0 means all")
	flags.IntVar(&f.routines, "routines", 0, "Number of goroutines scanning candidates")
	flags.IntVar(&f.jpegQuality, "jpeg", 0, "JPEG quality of the output")
	flags.StringVar(&f.root, "root", "", "Prefix of the output files")
	flags.StringVar(&f.photoDir, "photos", "", "Directory of photos")
	flags.StringVar(&f.photoList, "list", "", "Flickr photo list")
	flags.BoolVar(&f.recursive, "recursive", false, "Search the photo directory recursively")
	flags.StringVar(&f.cacheRoot, "cache", "", "Directory of the Flickr photo cache")
	flags.BoolVar(&f.noDownload, "nodownload", false, "Only use photos in the cache")
}

// loadConfig reads the configuration and applies the flags that are set.
func (f *runFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("reso") {
		x, y, dimErr := mosaick.ParseDimensions(f.reso)
		if dimErr != nil {
			return nil, dimErr
		}
		c.ResoX, c.ResoY = x, y
	}
	setInt := func(name string, dst *int, val int) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	setBool := func(name string, dst *bool, val bool) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	setString := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	setInt("max", &c.MaxImages, f.maxImages)
	setInt("cellsize", &c.CellSize, f.cellsize)
	setString("quality", &c.Quality, f.quality)
	setBool("flops", &c.Flops, f.flops)
	setBool("variations", &c.Variations, f.variations)
	setBool("dupes", &c.DupesAllowed, f.dupes)
	setInt("mindupedist", &c.MinDupeDist, f.minDupeDist)
	setBool("noborders", &c.RejectBorders, f.rejectBorders)
	setInt("limit", &c.SampleLimit, f.sampleLimit)
	setInt("routines", &c.Routines, f.routines)
	setInt("jpeg", &c.JPEGQuality, f.jpegQuality)
	setString("root", &c.OutputRoot, f.root)
	setString("photos", &c.Photos.Dir, f.photoDir)
	setString("list", &c.Photos.List, f.photoList)
	setBool("recursive", &c.Photos.Recursive, f.recursive)
	setString("cache", &c.Photos.CacheRoot, f.cacheRoot)
	if f.noDownload {
		c.Photos.Download = false
	}
	if err := c.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
