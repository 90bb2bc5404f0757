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

// Package config contains the run configuration of the mosaick command.
//
// Values are taken from the defaults, an optional YAML file and MOSAICK_*
// environment variables, in this order. Command line flags override the
// result.
package config

import (
	"os"
	"strconv"

	"github.com/FabianWe/mosaick"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of all environment variables.
const EnvPrefix = "MOSAICK_"

// Config is the configuration of a mosaic run.
type Config struct {
	ResoX         int    `yaml:"resoX"`
	ResoY         int    `yaml:"resoY"`     // 0 means same as ResoX
	MaxImages     int    `yaml:"maxImages"` // 0 means a quarter of the pool
	CellSize      int    `yaml:"cellsize"`
	Quality       string `yaml:"quality"`
	Flops         bool   `yaml:"flops"`
	Variations    bool   `yaml:"variations"`
	DupesAllowed  bool   `yaml:"dupesAllowed"`
	MinDupeDist   int    `yaml:"minDupeDist"`
	RejectBorders bool   `yaml:"rejectBorders"`
	SampleLimit   int    `yaml:"sampleLimit"`
	Routines      int    `yaml:"routines"`
	JPEGQuality   int    `yaml:"jpegQuality"`
	Interpolation uint   `yaml:"interpolation"`
	OutputRoot    string `yaml:"outputRoot"`

	Photos PhotoConfig `yaml:"photos"`
}

// PhotoConfig describes where the candidate photos come from.
type PhotoConfig struct {
	// Dir is a directory of images, used if List is empty.
	Dir       string `yaml:"dir"`
	Recursive bool   `yaml:"recursive"`
	// List is a Flickr photo list.
	List         string `yaml:"list"`
	CacheRoot    string `yaml:"cacheRoot"`
	Download     bool   `yaml:"download"`
	DupeOwnersOK bool   `yaml:"dupeOwnersOK"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ResoX:         7,
		CellSize:      20,
		Quality:       "normal",
		Flops:         true,
		DupesAllowed:  true,
		MinDupeDist:   8,
		Routines:      1,
		JPEGQuality:   90,
		Interpolation: 3,
		OutputRoot:    "mosaic",
		Photos: PhotoConfig{
			CacheRoot:    "~/.mosaick",
			Download:     true,
			DupeOwnersOK: true,
		},
	}
}

// envInt reads an environment variable and parses it as a non-negative
// integer. Returns the default value if the env var is unset, empty or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(EnvPrefix + key); s != "" {
		return s
	}
	return defaultVal
}

// ApplyEnv overrides the values with the environment variables that are set.
func (c *Config) ApplyEnv() {
	c.ResoX = envInt("RESOX", c.ResoX)
	c.ResoY = envInt("RESOY", c.ResoY)
	c.MaxImages = envInt("MAX_IMAGES", c.MaxImages)
	c.CellSize = envInt("CELLSIZE", c.CellSize)
	c.Quality = envString("QUALITY", c.Quality)
	c.Flops = envBool("FLOPS", c.Flops)
	c.Variations = envBool("VARIATIONS", c.Variations)
	c.DupesAllowed = envBool("DUPES_ALLOWED", c.DupesAllowed)
	c.MinDupeDist = envInt("MIN_DUPE_DIST", c.MinDupeDist)
	c.RejectBorders = envBool("REJECT_BORDERS", c.RejectBorders)
	c.SampleLimit = envInt("SAMPLE_LIMIT", c.SampleLimit)
	c.Routines = envInt("ROUTINES", c.Routines)
	c.JPEGQuality = envInt("JPEG_QUALITY", c.JPEGQuality)
	c.Interpolation = uint(envInt("INTERPOLATION", int(c.Interpolation)))
	c.OutputRoot = envString("OUTPUT_ROOT", c.OutputRoot)
	c.Photos.Dir = envString("PHOTO_DIR", c.Photos.Dir)
	c.Photos.Recursive = envBool("PHOTO_RECURSIVE", c.Photos.Recursive)
	c.Photos.List = envString("PHOTO_LIST", c.Photos.List)
	c.Photos.CacheRoot = envString("CACHE_ROOT", c.Photos.CacheRoot)
	c.Photos.Download = envBool("DOWNLOAD", c.Photos.Download)
	c.Photos.DupeOwnersOK = envBool("DUPE_OWNERS_OK", c.Photos.DupeOwnersOK)
}

// Load returns the default configuration updated by the YAML file at path
// (if path is not empty) and the environment.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return nil, errors.Wrap(err, "Can't read config file")
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, errors.Wrapf(err, "Can't parse config file %s", expanded)
		}
	}
	c.ApplyEnv()
	if err := c.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ExpandPaths expands a leading ~ in all paths to the home directory.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.Photos.Dir, &c.Photos.List, &c.Photos.CacheRoot} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate checks that all values are in range.
func (c *Config) Validate() error {
	switch {
	case c.ResoX <= 0:
		return errors.Errorf("resoX must be positive, got %d", c.ResoX)
	case c.ResoY < 0:
		return errors.Errorf("resoY must not be negative, got %d", c.ResoY)
	case c.CellSize <= 0:
		return errors.Errorf("cellsize must be positive, got %d", c.CellSize)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return errors.Errorf("jpegQuality must be between 1 and 100, got %d", c.JPEGQuality)
	case c.Routines <= 0:
		return errors.Errorf("routines must be positive, got %d", c.Routines)
	}
	_, err := mosaick.ParseQuality(c.Quality)
	return err
}

// TileReso returns the tile resolution, ResoY defaults to ResoX.
func (c *Config) TileReso() (int, int) {
	if c.ResoY == 0 {
		return c.ResoX, c.ResoX
	}
	return c.ResoX, c.ResoY
}

// ImageBudget returns MaxImages or a quarter of the pool size if it is 0.
func (c *Config) ImageBudget(poolSize int) int {
	if c.MaxImages > 0 {
		return c.MaxImages
	}
	if poolSize < 4 {
		return 1
	}
	return poolSize / 4
}

// MatchOptions returns the matcher options described by the configuration.
func (c *Config) MatchOptions() mosaick.MatchOptions {
	// quality is validated by Load
	quality, _ := mosaick.ParseQuality(c.Quality)
	opts := mosaick.DefaultMatchOptions()
	opts.Quality = quality
	opts.DupesAllowed = c.DupesAllowed
	opts.MinDupeDist = c.MinDupeDist
	opts.UseVariants = c.Variations
	opts.Mirror = c.Flops
	opts.NumRoutines = c.Routines
	opts.Resizer = mosaick.NewNfntResizer(mosaick.GetInterP(c.Interpolation))
	return opts
}
