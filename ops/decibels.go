// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/ik5/audload/pipeline"
)

// DecibelOptions configures ToDecibels.
type DecibelOptions struct {
	// Multiplier is 10 for power and 20 for magnitude. Default: 10.
	Multiplier float64
	// Reference is the value mapped to 0 dB. Default: 1.
	Reference float64
	// ReferenceMax uses the per-sample maximum as reference instead.
	ReferenceMax bool
	// CutoffDB is the floor of the output. Default: -200.
	CutoffDB float64
}

// ToDecibels computes mult*log10(max(cutoff, x/ref)) element-wise, where
// cutoff is 10^(CutoffDB/mult). The output keeps the input shape.
type ToDecibels struct {
	opts    DecibelOptions
	cutoff  float64
	scratch sync.Pool
}

func NewToDecibels(opts DecibelOptions) (*ToDecibels, error) {
	if opts.Multiplier == 0 {
		opts.Multiplier = 10
	}
	if opts.Reference == 0 {
		opts.Reference = 1
	}
	if opts.CutoffDB == 0 {
		opts.CutoffDB = -200
	}
	switch {
	case opts.Multiplier < 0:
		return nil, configErr("multiplier %v must be positive", opts.Multiplier)
	case opts.Reference < 0:
		return nil, configErr("reference %v must be positive", opts.Reference)
	case opts.CutoffDB > 0:
		return nil, configErr("cutoff_db %v must not be positive", opts.CutoffDB)
	}
	return &ToDecibels{
		opts:   opts,
		cutoff: math.Pow(10, opts.CutoffDB/opts.Multiplier),
	}, nil
}

func (*ToDecibels) Arity() int { return 1 }

func (d *ToDecibels) Apply(_ context.Context, _ *pipeline.Sample, in []*pipeline.Buffer, out *pipeline.Buffer) error {
	src := in[0]
	dst := out.Resize(len(src.Data))
	out.SetShape(src.Shape...)
	out.SampleRate = src.SampleRate
	if len(src.Data) == 0 {
		return nil
	}

	ref := d.opts.Reference
	if d.opts.ReferenceMax {
		ref = d.peak(src.Data)
		if ref <= 0 {
			ref = 1
		}
	}

	inv := 1 / ref
	for i, v := range src.Data {
		dst[i] = float32(d.opts.Multiplier * math.Log10(max(d.cutoff, float64(v)*inv)))
	}
	return nil
}

func (d *ToDecibels) peak(x []float32) float64 {
	buf, _ := d.scratch.Get().(*[]float64)
	if buf == nil {
		buf = new([]float64)
	}
	defer d.scratch.Put(buf)

	*buf = widen(*buf, x)
	return floats.Max(*buf)
}

// widen copies x into dst as float64, reusing its capacity.
func widen(dst []float64, x []float32) []float64 {
	if cap(dst) < len(x) {
		dst = make([]float64, len(x))
	}
	dst = dst[:len(x)]
	for i, v := range x {
		dst[i] = float64(v)
	}
	return dst
}
