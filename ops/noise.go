// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"context"

	"github.com/ik5/audload/pipeline"
)

// NoiseOptions configures GaussianNoise.
type NoiseOptions struct {
	Mean   float32
	StdDev float32
}

// GaussianNoise adds normally distributed noise drawn from the sample's own
// random stream, so a given seed, epoch and slot always get the same noise.
type GaussianNoise struct {
	opts NoiseOptions
}

func NewGaussianNoise(opts NoiseOptions) (*GaussianNoise, error) {
	if opts.StdDev < 0 {
		return nil, configErr("noise stddev %v must not be negative", opts.StdDev)
	}
	return &GaussianNoise{opts: opts}, nil
}

func (*GaussianNoise) Arity() int { return 1 }

func (g *GaussianNoise) Apply(_ context.Context, s *pipeline.Sample, in []*pipeline.Buffer, out *pipeline.Buffer) error {
	src := in[0]
	dst := out.Resize(len(src.Data))
	out.SetShape(src.Shape...)
	out.SampleRate = src.SampleRate

	rng := s.Rand()
	mean, std := float64(g.opts.Mean), float64(g.opts.StdDev)
	for i, v := range src.Data {
		dst[i] = v + float32(mean+std*rng.NormFloat64())
	}
	return nil
}
