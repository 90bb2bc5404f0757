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

package photoset

import (
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/FabianWe/mosaick"
	"github.com/pkg/errors"
)

// DirSet is a corpus of image files stored in a directory.
// The paths are stored relative to the Root directory.
//
// If OwnerFromDir is true all photos in the same directory share the same
// duplicate key, otherwise each file is its own key.
type DirSet struct {
	Root         string
	Paths        []string
	OwnerFromDir bool
}

// NewDirSet returns an empty set with the given root.
func NewDirSet(root string) *DirSet {
	return &DirSet{Root: root, Paths: nil}
}

// GetPath returns the absolute path of the image with the given id.
func (set *DirSet) GetPath(id mosaick.PhotoID) string {
	return filepath.Join(set.Root, set.Paths[id])
}

func (set *DirSet) valid(id mosaick.PhotoID) bool {
	return id >= 0 && id < set.NumPhotos()
}

// NumPhotos returns the number of files.
func (set *DirSet) NumPhotos() mosaick.PhotoID {
	return mosaick.PhotoID(len(set.Paths))
}

// LoadPhoto opens and decodes the file, minWidth is ignored.
func (set *DirSet) LoadPhoto(id mosaick.PhotoID, minWidth int) (image.Image, error) {
	if !set.valid(id) {
		return nil, errors.Errorf("Invalid image id: Not associated with an image %d", id)
	}
	return DecodeFile(set.GetPath(id))
}

// DuplicateKey returns the directory of the file if OwnerFromDir is set and
// the file path otherwise.
func (set *DirSet) DuplicateKey(id mosaick.PhotoID) string {
	if !set.valid(id) {
		return ""
	}
	if set.OwnerFromDir {
		return filepath.Dir(set.Paths[id])
	}
	return set.Paths[id]
}

// WebLink returns a file url of the image.
func (set *DirSet) WebLink(id mosaick.PhotoID) string {
	if !set.valid(id) {
		return ""
	}
	return "file://" + filepath.ToSlash(set.GetPath(id))
}

// Description returns the relative path of the image.
func (set *DirSet) Description(id mosaick.PhotoID) string {
	if !set.valid(id) {
		return ""
	}
	return set.Paths[id]
}

// GenDirSet creates a set of all images in root that are accepted by
// filter (mosaick.CommonFormats if filter is nil). If recursive is true all
// subdirectories are searched as well. The paths are sorted.
func GenDirSet(root string, recursive bool, filter mosaick.SupportedImageFunc) (*DirSet, error) {
	root, absErr := filepath.Abs(root)
	if absErr != nil {
		return nil, absErr
	}
	if filter == nil {
		filter = mosaick.CommonFormats
	}
	var res *DirSet
	var err error
	if recursive {
		res, err = genDirSetRecursive(root, filter)
	} else {
		res, err = genDirSetNonRecursive(root, filter)
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(res.Paths)
	return res, nil
}

func genDirSetRecursive(root string, filter mosaick.SupportedImageFunc) (*DirSet, error) {
	result := NewDirSet(root)
	walkFunc := func(path string, info os.FileInfo, err error) error {
		switch {
		case err != nil:
			return err
		case !info.IsDir() && filter(filepath.Ext(path)):
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			result.Paths = append(result.Paths, rel)
			return nil
		default:
			return nil
		}
	}
	if err := filepath.Walk(root, walkFunc); err != nil {
		return nil, err
	}
	return result, nil
}

func genDirSetNonRecursive(root string, filter mosaick.SupportedImageFunc) (*DirSet, error) {
	result := NewDirSet(root)
	files, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if !file.IsDir() && filter(filepath.Ext(file.Name())) {
			result.Paths = append(result.Paths, file.Name())
		}
	}
	return result, nil
}
