// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audload/internal/pcm"
)

// Resampler streams src at a new sample rate using Catmull-Rom interpolation
// over a four-frame window. Channel count is preserved. When downsampling a
// one-pole low-pass filter is applied to incoming frames.
//
// For a source of N frames the output holds floor((N-1)/ratio)+1 frames,
// where ratio is srcRate/dstRate.
type Resampler struct {
	src   Source
	rate  int
	ch    int
	ratio float64

	// win[1] is the frame at idx; win[0], win[2] and win[3] are its
	// neighbours, duplicated at the edges of the stream.
	win  [4][]float32
	idx  int
	pos  float64
	last int

	primed bool
	eof    bool

	in    []float32
	inPos int
	inLen int

	filter bool
	alpha  float32
	state  []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	ch := max(src.Channels(), 1)
	ratio := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:    src,
		rate:   dstRate,
		ch:     ch,
		ratio:  ratio,
		last:   -1,
		in:     make([]float32, 1024*ch),
		filter: ratio > 1,
		alpha:  0.5,
		state:  make([]float32, ch),
	}
	for i := range r.win {
		r.win[i] = make([]float32, ch)
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.ch }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("resampler: %w", err)
	}
	return nil
}

// nextFrame copies the next source frame into dst. It reports false once the
// source is exhausted.
func (r *Resampler) nextFrame(dst []float32, first bool) (bool, error) {
	for r.inPos+r.ch > r.inLen {
		if r.eof {
			return false, nil
		}
		// keep a partial frame left over from an unaligned read
		rem := copy(r.in, r.in[r.inPos:r.inLen])
		n, err := r.src.ReadSamples(r.in[rem:])
		r.inPos, r.inLen = 0, rem+n
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			r.eof = true
		} else if err != nil {
			return false, fmt.Errorf("resampler: %w", err)
		}
	}

	copy(dst, r.in[r.inPos:r.inPos+r.ch])
	r.inPos += r.ch

	if r.filter {
		if first {
			copy(r.state, dst)
		}
		for c := range dst {
			dst[c] = r.alpha*dst[c] + (1-r.alpha)*r.state[c]
			r.state[c] = dst[c]
		}
	}
	return true, nil
}

// load fills win[i], duplicating win[i-1] past the end of the source.
func (r *Resampler) load(i, frameIdx int) error {
	ok, err := r.nextFrame(r.win[i], frameIdx == 0)
	if err != nil {
		return err
	}
	if !ok {
		if r.last < 0 {
			r.last = frameIdx - 1
		}
		copy(r.win[i], r.win[i-1])
	}
	return nil
}

func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.nextFrame(r.win[1], true)
	if err != nil {
		return err
	}
	if !ok {
		r.last = -1
		r.idx = 0
		r.pos = 1
		return nil
	}
	copy(r.win[0], r.win[1])

	if err := r.load(2, 1); err != nil {
		return err
	}
	return r.load(3, 2)
}

func (r *Resampler) advance() error {
	r.win[0], r.win[1], r.win[2], r.win[3] = r.win[1], r.win[2], r.win[3], r.win[0]
	r.idx++
	if r.last >= 0 && r.idx+2 > r.last {
		copy(r.win[3], r.win[2])
		return nil
	}
	return r.load(3, r.idx+2)
}

// ReadSamples writes interleaved frames at the target rate. len(dst) must be
// a multiple of Channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.ch != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	want := len(dst) / r.ch
	written := 0
	for written < want {
		if r.last >= 0 && (r.idx > r.last || (r.idx == r.last && r.pos > 0)) {
			break
		}
		if r.last < 0 && r.eof && r.pos >= 1 {
			// empty source
			break
		}

		x := float32(r.pos)
		out := dst[written*r.ch : (written+1)*r.ch]
		for c := range out {
			out[c] = pcm.Cubic(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], x)
		}
		written++

		r.pos += r.ratio
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return written * r.ch, err
			}
		}
	}

	if written < want {
		return written * r.ch, io.EOF
	}
	return written * r.ch, nil
}
