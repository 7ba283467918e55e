// SPDX-License-Identifier: EPL-2.0

package audload

import (
	"fmt"
	"os"

	"github.com/ik5/audload/audio"
	"github.com/ik5/audload/loaderr"
)

// DecodeOptions controls the conversion applied after decoding.
type DecodeOptions struct {
	// Downmix averages all channels into one.
	Downmix bool
	// SampleRate resamples to this rate when positive; 0 keeps the native
	// rate.
	SampleRate int
}

// Info describes decoded audio.
type Info struct {
	SampleRate int
	Channels   int
	// Frames is the number of samples per channel.
	Frames int
}

// DecodeFile opens path, picks a decoder by extension and decodes the whole
// file into dst, reusing its backing array when large enough. The result is
// interleaved unless Downmix is set.
//
// Every failure, including a missing file or an unknown extension, is
// returned as a *loaderr.DecodeError so callers can treat it as a per-sample
// problem.
func DecodeFile(reg *audio.Registry, path string, opts DecodeOptions, dst []float32) ([]float32, Info, error) {
	dec, err := reg.Lookup(path)
	if err != nil {
		return dst[:0], Info{}, loaderr.NewDecodeError(path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return dst[:0], Info{}, loaderr.NewDecodeError(path, err)
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		return dst[:0], Info{}, loaderr.NewDecodeError(path, err)
	}

	out, info, err := Convert(src, opts, dst)
	if err != nil {
		return out, info, loaderr.NewDecodeError(path, err)
	}
	return out, info, nil
}

// Convert drains src through the resample and downmix stages selected by
// opts and closes it.
func Convert(src audio.Source, opts DecodeOptions, dst []float32) ([]float32, Info, error) {
	if opts.SampleRate < 0 {
		return dst[:0], Info{}, fmt.Errorf("sample rate %d: %w", opts.SampleRate, audio.ErrInvalidRate)
	}
	if src.SampleRate() <= 0 {
		_ = src.Close()
		return dst[:0], Info{}, fmt.Errorf("source rate %d: %w", src.SampleRate(), audio.ErrInvalidRate)
	}

	chain := src
	if opts.SampleRate > 0 && opts.SampleRate != src.SampleRate() {
		chain = audio.NewResampler(chain, opts.SampleRate)
	}
	if opts.Downmix && chain.Channels() > 1 {
		chain = audio.NewMonoMixer(chain)
	}

	out, err := audio.ReadAll(chain, dst[:0])
	closeErr := chain.Close()
	if err != nil {
		return out, Info{}, err
	}
	if closeErr != nil {
		return out, Info{}, fmt.Errorf("close: %w", closeErr)
	}

	ch := max(chain.Channels(), 1)
	return out, Info{SampleRate: chain.SampleRate(), Channels: ch, Frames: len(out) / ch}, nil
}
