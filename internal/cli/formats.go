// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ik5/audload"
)

// FormatsCmd lists the file extensions the decoder stage accepts.
func FormatsCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported audio file extensions",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintln(env.Stdout, strings.Join(audload.DefaultRegistry().Formats(), " "))
			return err
		},
	}
}
