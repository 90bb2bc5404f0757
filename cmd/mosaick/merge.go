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

	"github.com/FabianWe/mosaick/photoset"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <out> <photo list>...",
	Short: "Merge photo lists",
	Long: `Merge writes the union of the photo lists to out, photos that appear in more
than one list are written once. A missing extension defaults to .json.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		num, err := photoset.MergeLists(args[0], args[1:]...)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d photos to %s\n", num, photoset.PhotoListFile(args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
