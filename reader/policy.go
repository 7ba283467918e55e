// SPDX-License-Identifier: EPL-2.0

package reader

import (
	"fmt"
	"strings"

	"github.com/ik5/audload/loaderr"
)

// Policy decides what happens to the trailing batch of an epoch when the
// shard size is not a multiple of the batch size.
type Policy int

const (
	// Fill pads the last batch to full size with entries from the start of
	// the shard, or with the last entry when padding is repeated.
	Fill Policy = iota
	// Drop discards the incomplete trailing batch.
	Drop
	// Partial emits a short last batch.
	Partial
)

func (p Policy) String() string {
	switch p {
	case Fill:
		return "fill"
	case Drop:
		return "drop"
	case Partial:
		return "partial"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts fill, drop or partial in any case.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fill", "":
		return Fill, nil
	case "drop":
		return Drop, nil
	case "partial":
		return Partial, nil
	default:
		return 0, fmt.Errorf("%w: last batch policy %q", loaderr.ErrConfiguration, s)
	}
}
