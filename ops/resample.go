// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"context"
	"fmt"
	"math"

	"github.com/ik5/audload"
	"github.com/ik5/audload/audio"
	"github.com/ik5/audload/pipeline"
)

// RateOptions configures UniformRate.
type RateOptions struct {
	// Base is the rate scaled by the drawn factor. Default 16000.
	Base int
	// MinFactor and MaxFactor bound the factor. Both zero means 1.
	MinFactor float64
	MaxFactor float64
}

// UniformRate draws a target sample rate per sample, Base times a factor
// uniform in [MinFactor, MaxFactor], rounded to whole Hz and written as
// Ints [rate]. The draw comes from the sample's random stream; the input is
// only used to order the stage.
type UniformRate struct {
	opts RateOptions
}

func NewUniformRate(opts RateOptions) (*UniformRate, error) {
	if opts.Base == 0 {
		opts.Base = 16000
	}
	if opts.MinFactor == 0 && opts.MaxFactor == 0 {
		opts.MinFactor, opts.MaxFactor = 1, 1
	}
	switch {
	case opts.Base < 0:
		return nil, configErr("rate base %d must be positive", opts.Base)
	case opts.MinFactor <= 0 || opts.MaxFactor < opts.MinFactor:
		return nil, configErr("rate factor range [%v, %v] must be positive and ordered", opts.MinFactor, opts.MaxFactor)
	}
	return &UniformRate{opts: opts}, nil
}

func (*UniformRate) Arity() int { return 1 }

func (u *UniformRate) Apply(_ context.Context, s *pipeline.Sample, _ []*pipeline.Buffer, out *pipeline.Buffer) error {
	f := u.opts.MinFactor
	if span := u.opts.MaxFactor - u.opts.MinFactor; span > 0 {
		f += span * s.Rand().Float64()
	}
	out.SetShape(1)
	out.SetInts(max(int(math.Round(float64(u.opts.Base)*f)), 1))
	return nil
}

// Resample converts a waveform to the rate held by its second input, as
// produced by UniformRate, with the cubic audio.Resampler. Channels are kept.
type Resample struct{}

func NewResample() *Resample { return &Resample{} }

func (*Resample) Arity() int { return 2 }

func (*Resample) Apply(_ context.Context, _ *pipeline.Sample, in []*pipeline.Buffer, out *pipeline.Buffer) error {
	wave, rate := in[0], in[1]
	if len(rate.Ints) != 1 || rate.Ints[0] <= 0 {
		return fmt.Errorf("%w: rate wants one positive value, got %v", ErrShape, rate.Ints)
	}
	if wave.SampleRate <= 0 {
		return fmt.Errorf("%w: waveform has no sample rate", ErrShape)
	}
	ch := 1
	if len(wave.Shape) == 2 {
		ch = wave.Shape[1]
	}

	src := audio.NewMemory(wave.Data, wave.SampleRate, ch)
	data, info, err := audload.Convert(src, audload.DecodeOptions{SampleRate: rate.Ints[0]}, out.Data)
	out.Data = data
	if err != nil {
		return fmt.Errorf("resample: %w", err)
	}

	out.SampleRate = info.SampleRate
	if ch == 1 {
		out.SetShape(info.Frames)
	} else {
		out.SetShape(info.Frames, ch)
	}
	return nil
}
