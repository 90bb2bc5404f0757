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
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FabianWe/mosaick"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// ThumbnailWidth is the largest minimal width for which thumbnails are
	// used instead of the medium size.
	ThumbnailWidth = 50

	// MinCacheFileSize is the size in bytes a cached file must have. Smaller
	// files are considered broken and are downloaded again.
	MinCacheFileSize = 400

	// DefaultTimeout is the timeout of the default http client.
	DefaultTimeout = 30 * time.Second
)

// Photo describes a photo on Flickr, the fields are the ones returned by the
// Flickr search API.
type Photo struct {
	ID     string `json:"id"`
	Owner  string `json:"owner"`
	Secret string `json:"secret"`
	Server string `json:"server"`
	Farm   int    `json:"farm"`
	Title  string `json:"title"`
}

// SizeSuffix returns the Flickr size suffix for the given minimal width: "_t"
// for thumbnails and "" for the medium size.
func SizeSuffix(minWidth int) string {
	if minWidth <= ThumbnailWidth {
		return "_t"
	}
	return ""
}

// FlickrSet is a corpus of Flickr photos. Photos are cached in CacheRoot and
// downloaded on demand if Download is true.
//
// If DupeOwnersOK is true each photo is its own duplicate key, otherwise all
// photos of the same owner share a key.
//
// BaseURL replaces the farm host if set, this is mainly used for testing.
type FlickrSet struct {
	Photos       []Photo
	CacheRoot    string
	Download     bool
	DupeOwnersOK bool
	Client       *http.Client
	BaseURL      string
}

// NewFlickrSet returns a new set that downloads missing photos into
// cacheRoot. A leading ~ in cacheRoot is expanded to the home directory.
func NewFlickrSet(photos []Photo, cacheRoot string) (*FlickrSet, error) {
	expanded, err := homedir.Expand(cacheRoot)
	if err != nil {
		return nil, err
	}
	return &FlickrSet{
		Photos:       photos,
		CacheRoot:    expanded,
		Download:     true,
		DupeOwnersOK: true,
		Client:       &http.Client{Timeout: DefaultTimeout},
	}, nil
}

func (set *FlickrSet) valid(id mosaick.PhotoID) bool {
	return id >= 0 && id < set.NumPhotos()
}

// NumPhotos returns the number of photos in the list.
func (set *FlickrSet) NumPhotos() mosaick.PhotoID {
	return mosaick.PhotoID(len(set.Photos))
}

// CachePath returns the path of the cached file. Photos are distributed in
// two directory levels derived from the numeric id.
func (set *FlickrSet) CachePath(photo Photo, suffix string) string {
	var num int64
	fmt.Sscanf(photo.ID, "%d", &num)
	dir := filepath.Join(set.CacheRoot, "flickrcache",
		fmt.Sprintf("%03d", (num/1000000)%1000),
		fmt.Sprintf("%03d", (num/1000)%1000))
	return filepath.Join(dir, photo.ID+suffix+".jpg")
}

// PhotoURL returns the download url of the photo.
func (set *FlickrSet) PhotoURL(photo Photo, suffix string) string {
	if set.BaseURL != "" {
		return fmt.Sprintf("%s/%s/%s_%s%s.jpg", strings.TrimSuffix(set.BaseURL, "/"),
			photo.Server, photo.ID, photo.Secret, suffix)
	}
	return fmt.Sprintf("http://farm%d.static.flickr.com/%s/%s_%s%s.jpg",
		photo.Farm, photo.Server, photo.ID, photo.Secret, suffix)
}

func (set *FlickrSet) client() *http.Client {
	if set.Client == nil {
		return http.DefaultClient
	}
	return set.Client
}

func (set *FlickrSet) fetch(photo Photo, suffix, path string) error {
	url := set.PhotoURL(photo, suffix)
	log.WithField("url", url).Debug("Downloading photo")
	resp, err := set.client().Get(url)
	if err != nil {
		return errors.Wrapf(err, "Can't download %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("Can't download %s: got status %s", url, resp.Status)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "Can't download %s", url)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// LoadPhoto returns the cached photo, downloading it first if it is missing
// or broken and Download is enabled.
func (set *FlickrSet) LoadPhoto(id mosaick.PhotoID, minWidth int) (image.Image, error) {
	if !set.valid(id) {
		return nil, errors.Errorf("Invalid image id: Not associated with an image %d", id)
	}
	photo := set.Photos[id]
	suffix := SizeSuffix(minWidth)
	path := set.CachePath(photo, suffix)
	info, statErr := os.Stat(path)
	if statErr != nil || info.Size() < MinCacheFileSize {
		if !set.Download {
			return nil, errors.Errorf("Photo %s not in cache and download disabled", photo.ID)
		}
		if err := set.fetch(photo, suffix, path); err != nil {
			return nil, err
		}
	}
	return DecodeFile(path)
}

// DuplicateKey returns the photo id or the owner if DupeOwnersOK is false.
func (set *FlickrSet) DuplicateKey(id mosaick.PhotoID) string {
	if !set.valid(id) {
		return ""
	}
	if set.DupeOwnersOK {
		return set.Photos[id].ID
	}
	return set.Photos[id].Owner
}

// WebLink returns the Flickr page of the photo.
func (set *FlickrSet) WebLink(id mosaick.PhotoID) string {
	if !set.valid(id) {
		return ""
	}
	photo := set.Photos[id]
	return fmt.Sprintf("http://www.flickr.com/photos/%s/%s/", photo.Owner, photo.ID)
}

// Description returns the text shown in the image map.
func (set *FlickrSet) Description(id mosaick.PhotoID) string {
	if !set.valid(id) {
		return ""
	}
	return fmt.Sprintf("Photo %s -- click to view", set.Photos[id].ID)
}

// PhotoListFile returns name with ".json" appended if it has no extension.
func PhotoListFile(name string) string {
	if filepath.Ext(name) == "" {
		return name + ".json"
	}
	return name
}

// ReadPhotoList reads a JSON photo list.
func ReadPhotoList(name string) ([]Photo, error) {
	path := PhotoListFile(name)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var photos []Photo
	if err := json.NewDecoder(f).Decode(&photos); err != nil {
		return nil, errors.Wrapf(err, "Can't parse photo list %s", path)
	}
	return photos, nil
}

// WritePhotoList writes the photos as JSON.
func WritePhotoList(name string, photos []Photo) error {
	f, err := os.Create(PhotoListFile(name))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(photos); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MergePhotos returns the union of the lists by photo id, the first
// occurrence of an id wins.
func MergePhotos(lists ...[]Photo) []Photo {
	seen := make(map[string]struct{})
	var res []Photo
	for _, list := range lists {
		for _, photo := range list {
			if _, has := seen[photo.ID]; has {
				continue
			}
			seen[photo.ID] = struct{}{}
			res = append(res, photo)
		}
	}
	return res
}

// MergeLists reads all input lists and writes the merged list to out.
// It returns the number of photos in the result.
func MergeLists(out string, inputs ...string) (int, error) {
	lists := make([][]Photo, 0, len(inputs))
	for _, in := range inputs {
		photos, err := ReadPhotoList(in)
		if err != nil {
			return 0, err
		}
		log.WithFields(log.Fields{"list": in, "photos": len(photos)}).Info("Read photo list")
		lists = append(lists, photos)
	}
	merged := MergePhotos(lists...)
	if err := WritePhotoList(out, merged); err != nil {
		return 0, err
	}
	return len(merged), nil
}
