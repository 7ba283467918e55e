// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"context"

	"github.com/ik5/audload"
	"github.com/ik5/audload/audio"
	"github.com/ik5/audload/loaderr"
	"github.com/ik5/audload/pipeline"
)

// DecoderOptions configures AudioDecoder.
type DecoderOptions struct {
	// Downmix averages all channels into one.
	Downmix bool
	// SampleRate resamples when positive.
	SampleRate int
	// Registry maps extensions to decoders. Default: audload.DefaultRegistry().
	Registry *audio.Registry
}

// AudioDecoder reads the file named by its input's Ref and outputs the
// waveform, shaped [frames] for mono or [frames, channels] otherwise, with
// SampleRate set. Unreadable, corrupt and empty files fail with a
// *loaderr.DecodeError.
type AudioDecoder struct {
	opts audload.DecodeOptions
	reg  *audio.Registry
}

// NewAudioDecoder rejects a negative sample rate and falls back to the
// default registry when none is given.
func NewAudioDecoder(opts DecoderOptions) (*AudioDecoder, error) {
	if opts.SampleRate < 0 {
		return nil, configErr("decoder sample_rate %d must not be negative", opts.SampleRate)
	}
	reg := opts.Registry
	if reg == nil {
		reg = audload.DefaultRegistry()
	}
	return &AudioDecoder{
		opts: audload.DecodeOptions{Downmix: opts.Downmix, SampleRate: opts.SampleRate},
		reg:  reg,
	}, nil
}

func (*AudioDecoder) Arity() int { return 1 }

func (d *AudioDecoder) Apply(_ context.Context, _ *pipeline.Sample, in []*pipeline.Buffer, out *pipeline.Buffer) error {
	path := in[0].Ref

	data, info, err := audload.DecodeFile(d.reg, path, d.opts, out.Data)
	out.Data = data
	if err != nil {
		return err
	}
	if info.Frames == 0 {
		return loaderr.NewDecodeError(path, ErrEmptyAudio)
	}

	out.SampleRate = info.SampleRate
	if info.Channels == 1 {
		out.SetShape(info.Frames)
	} else {
		out.SetShape(info.Frames, info.Channels)
	}
	return nil
}
