// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ik5/audload/loaderr"
	"github.com/ik5/audload/manifest"
	"github.com/ik5/audload/shard"
)

// ShardsCmd prints how a file list splits across shards.
func ShardsCmd(env *Env) *cobra.Command {
	var (
		fileList  string
		numShards int
	)

	cmd := &cobra.Command{
		Use:     "shards",
		Short:   "Show how a file list is split across shards",
		Example: `  audload shards --file-list data/list.txt --num-shards 4`,
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if fileList == "" {
				return fmt.Errorf("%w: --file-list or %s is required", loaderr.ErrConfiguration, EnvFileList)
			}
			entries, err := manifest.Load(fileList)
			if err != nil {
				return err
			}
			a := shard.Assignment{NumShards: numShards}
			if err := a.Validate(); err != nil {
				return err
			}

			for id, idx := range a.Partition(len(entries)) {
				first, last := "-", "-"
				if len(idx) > 0 {
					first, last = entries[idx[0]].Path, entries[idx[len(idx)-1]].Path
				}
				fmt.Fprintf(env.Stdout, "shard %d: %d entries [%s .. %s]\n", id, len(idx), first, last)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fileList, "file-list", env.Getenv(EnvFileList), "File list: one \"path label\" per line")
	cmd.Flags().IntVar(&numShards, "num-shards", 1, "Number of shards")
	return cmd
}
