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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/FabianWe/mosaick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, c.ResoX)
	resoX, resoY := c.TileReso()
	assert.Equal(t, 7, resoX)
	assert.Equal(t, 7, resoY)
	assert.Equal(t, 20, c.CellSize)
	assert.True(t, c.Flops)
	assert.False(t, c.Variations)
	assert.True(t, c.DupesAllowed)
	assert.Equal(t, 8, c.MinDupeDist)
	assert.Equal(t, 90, c.JPEGQuality)
	assert.NotContains(t, c.Photos.CacheRoot, "~")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mosaick.yaml")
	data := []byte(`resoX: 5
resoY: 4
maxImages: 1200
quality: accurate
flops: false
variations: true
photos:
  list: photos.json
  download: false
`)
	require.NoError(t, os.WriteFile(path, data, 0644))
	c, err := Load(path)
	require.NoError(t, err)
	resoX, resoY := c.TileReso()
	assert.Equal(t, 5, resoX)
	assert.Equal(t, 4, resoY)
	assert.Equal(t, 1200, c.ImageBudget(10))
	assert.Equal(t, "photos.json", c.Photos.List)
	assert.False(t, c.Photos.Download)
	// not in the file
	assert.Equal(t, 20, c.CellSize)
	assert.True(t, c.Photos.DupeOwnersOK)

	opts := c.MatchOptions()
	assert.Equal(t, mosaick.Accurate, opts.Quality)
	assert.False(t, opts.Mirror)
	assert.True(t, opts.UseVariants)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MOSAICK_RESOX", "9")
	t.Setenv("MOSAICK_FLOPS", "false")
	t.Setenv("MOSAICK_QUALITY", "draft")
	t.Setenv("MOSAICK_ROUTINES", "4")
	t.Setenv("MOSAICK_CELLSIZE", "not a number")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, c.ResoX)
	assert.False(t, c.Flops)
	assert.Equal(t, 20, c.CellSize)
	opts := c.MatchOptions()
	assert.Equal(t, mosaick.Draft, opts.Quality)
	assert.Equal(t, 4, opts.NumRoutines)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quality: perfect\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("resoX: [1, 2]\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"resoX", func(c *Config) { c.ResoX = 0 }},
		{"resoY", func(c *Config) { c.ResoY = -1 }},
		{"cellsize", func(c *Config) { c.CellSize = 0 }},
		{"jpeg", func(c *Config) { c.JPEGQuality = 101 }},
		{"routines", func(c *Config) { c.Routines = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestImageBudget(t *testing.T) {
	c := Default()
	assert.Equal(t, 250, c.ImageBudget(1000))
	assert.Equal(t, 1, c.ImageBudget(3))
	c.MaxImages = 42
	assert.Equal(t, 42, c.ImageBudget(1000))
}
