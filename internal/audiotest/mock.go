// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic audio for tests: generator sources that
// satisfy audio.Source and helpers that write WAV fixtures to disk.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// Waveform returns the value of one sample of one channel.
type Waveform func(frame, channel int) float32

// Source generates frames from a Waveform. It satisfies audio.Source without
// importing it.
type Source struct {
	rate    int
	chans   int
	frames  int
	pos     int
	wave    Waveform
	closed  bool
	failAt  int
	failErr error
}

// NewSource returns a generator of frames frames per channel.
func NewSource(rate, channels, frames int, wave Waveform) *Source {
	return &Source{rate: rate, chans: channels, frames: frames, wave: wave, failAt: -1}
}

// Silent generates zeros.
func Silent(rate, channels, frames int) *Source {
	return NewSource(rate, channels, frames, func(int, int) float32 { return 0 })
}

// Sine generates a full-scale sine of freq Hz on every channel.
func Sine(rate, channels, frames int, freq float64) *Source {
	return NewSource(rate, channels, frames, func(f, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * freq * float64(f) / float64(rate)))
	})
}

// Constant generates value on every channel.
func Constant(rate, channels, frames int, value float32) *Source {
	return NewSource(rate, channels, frames, func(int, int) float32 { return value })
}

// FailAfter makes ReadSamples return err once frame has been reached.
func (s *Source) FailAfter(frame int, err error) *Source {
	s.failAt = frame
	s.failErr = err
	return s
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.chans }
func (s *Source) BufSize() int    { return 4096 }

// Closed reports whether Close was called.
func (s *Source) Closed() bool { return s.closed }

func (s *Source) Close() error {
	if s.closed {
		return errors.New("audiotest: double close")
	}
	s.closed = true
	return nil
}

// Rewind restarts generation from the first frame.
func (s *Source) Rewind() { s.pos = 0 }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.failAt >= 0 && s.pos >= s.failAt {
		return 0, s.failErr
	}
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.chans, s.frames-s.pos)
	if s.failAt >= 0 {
		n = min(n, s.failAt-s.pos)
	}
	for f := range n {
		for c := range s.chans {
			dst[f*s.chans+c] = s.wave(s.pos+f, c)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.chans, io.EOF
	}
	return n * s.chans, nil
}
