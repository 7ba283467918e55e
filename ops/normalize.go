// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/ik5/audload/pipeline"
)

// NormalizeOptions configures Normalize.
type NormalizeOptions struct {
	// PerRow normalises each row of a 2-D input on its own, e.g. each mel
	// band over time. Otherwise the whole buffer shares one mean and
	// deviation.
	PerRow bool
	// Epsilon is added to the variance. Default: 1e-8.
	Epsilon float64
}

// Normalize rescales its input to zero mean and unit variance:
// (x - mean) / sqrt(var + epsilon). The output keeps the input shape.
type Normalize struct {
	opts    NormalizeOptions
	scratch sync.Pool
}

func NewNormalize(opts NormalizeOptions) (*Normalize, error) {
	if opts.Epsilon == 0 {
		opts.Epsilon = 1e-8
	}
	if opts.Epsilon < 0 {
		return nil, configErr("epsilon %v must be positive", opts.Epsilon)
	}
	return &Normalize{opts: opts}, nil
}

func (*Normalize) Arity() int { return 1 }

func (n *Normalize) Apply(_ context.Context, _ *pipeline.Sample, in []*pipeline.Buffer, out *pipeline.Buffer) error {
	src := in[0]
	dst := out.Resize(len(src.Data))
	out.SetShape(src.Shape...)
	out.SampleRate = src.SampleRate
	if len(src.Data) == 0 {
		return nil
	}

	rows, cols := 1, len(src.Data)
	if n.opts.PerRow {
		var err error
		if rows, cols, err = matrix(src); err != nil {
			return err
		}
	}

	buf, _ := n.scratch.Get().(*[]float64)
	if buf == nil {
		buf = new([]float64)
	}
	defer n.scratch.Put(buf)

	for r := range rows {
		x := src.Data[r*cols : (r+1)*cols]
		*buf = widen(*buf, x)
		mean, std := stat.PopMeanStdDev(*buf, nil)
		scale := 1 / math.Sqrt(std*std+n.opts.Epsilon)
		y := dst[r*cols : (r+1)*cols]
		for i, v := range x {
			y[i] = float32((float64(v) - mean) * scale)
		}
	}
	return nil
}
