// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the audload command tree.
func NewRootCmd(env *Env, version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "audload",
		Short:   "Batched audio loading and preprocessing",
		Version: version,
		// Errors are printed by Execute so the exit code can be chosen.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)

	root.AddCommand(RunCmd(env))
	root.AddCommand(FormatsCmd(env))
	root.AddCommand(ShardsCmd(env))
	return root
}

// Execute runs the command line with args and returns the exit code.
func Execute(ctx context.Context, env *Env, version string, args []string) int {
	root := NewRootCmd(env, version)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(env.Stderr, "audload:", err)
	}
	return ExitCode(err)
}
