// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/ik5/audload/loaderr"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitGeneral   = 1
	ExitUsage     = 2
	ExitInterrupt = 130
)

// ExitCode maps an error returned by Execute to a process exit code.
// Configuration, graph and flag errors are usage errors.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupt
	case errors.Is(err, loaderr.ErrConfiguration), errors.Is(err, loaderr.ErrGraph), isCobraUsageError(err):
		return ExitUsage
	}
	return ExitGeneral
}

// Cobra does not type its parsing errors, so they are recognised by message.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, p := range cobraUsageErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
