// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/oneconcern/blobimport/pkg/bookmarks"
	"github.com/oneconcern/blobimport/pkg/source/histdump"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newBookmarksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bookmarks <repo>",
		Short: "List the bookmarks of a repository",
		Long:  "List the bookmarks found in <repo>/.hg/bookmarks, as <hash> <name> lines sorted by name.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkInput(args[0]); err != nil {
				return err
			}
			b, err := bookmarks.Read(afero.NewOsFs(), filepath.Join(args[0], histdump.HgDir))
			if err != nil {
				return err
			}

			names := b.Keys()
			sort.Strings(names)
			out := cmd.OutOrStdout()
			for _, name := range names {
				hash, _, _ := b.Get(name)
				if _, err := fmt.Fprintf(out, "%s %s\n", hash, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
