// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/ik5/audload/pipeline"
)

// Border selects the value used for x[-1] by Preemphasis.
type Border int

const (
	// BorderClamp repeats the first sample.
	BorderClamp Border = iota
	// BorderZero treats x[-1] as silence.
	BorderZero
	// BorderReflect uses x[1].
	BorderReflect
)

func (b Border) String() string {
	switch b {
	case BorderClamp:
		return "clamp"
	case BorderZero:
		return "zero"
	case BorderReflect:
		return "reflect"
	default:
		return fmt.Sprintf("Border(%d)", int(b))
	}
}

// ParseBorder parses "clamp", "zero" or "reflect". The empty string is clamp.
func ParseBorder(s string) (Border, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return BorderClamp, nil
	case "zero":
		return BorderZero, nil
	case "reflect":
		return BorderReflect, nil
	}
	return 0, configErr("unknown border %q", s)
}

// PreemphasisOptions configures Preemphasis.
type PreemphasisOptions struct {
	// Coeff is the filter coefficient. Default: 0.97.
	Coeff  float32
	Border Border
}

// Preemphasis applies y[i] = x[i] - coeff*x[i-1].
type Preemphasis struct {
	opts PreemphasisOptions
}

func NewPreemphasis(opts PreemphasisOptions) (*Preemphasis, error) {
	if opts.Coeff == 0 {
		opts.Coeff = 0.97
	}
	if opts.Coeff < 0 || opts.Coeff > 1 {
		return nil, configErr("preemphasis coeff %v outside [0, 1]", opts.Coeff)
	}
	if opts.Border < BorderClamp || opts.Border > BorderReflect {
		return nil, configErr("unknown border %v", opts.Border)
	}
	return &Preemphasis{opts: opts}, nil
}

func (*Preemphasis) Arity() int { return 1 }

func (p *Preemphasis) Apply(_ context.Context, _ *pipeline.Sample, in []*pipeline.Buffer, out *pipeline.Buffer) error {
	x := in[0].Data
	if err := mono(in[0]); err != nil {
		return err
	}
	y := out.Resize(len(x))
	out.SampleRate = in[0].SampleRate
	if len(x) == 0 {
		return nil
	}

	var prev float32
	switch p.opts.Border {
	case BorderClamp:
		prev = x[0]
	case BorderReflect:
		if len(x) > 1 {
			prev = x[1]
		}
	}

	c := p.opts.Coeff
	y[0] = x[0] - c*prev
	for i := 1; i < len(x); i++ {
		y[i] = x[i] - c*x[i-1]
	}
	return nil
}
