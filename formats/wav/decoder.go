// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audload/audio"
	"github.com/ik5/audload/internal/pcm"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// pcmReader is the subset of wav.Decoder the source needs.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec      pcmReader
	rate     int
	channels int
	depth    int
	buf      *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.rate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if cap(s.buf.Data) < len(dst) {
		s.buf.Data = make([]int, len(dst))
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("wav pcm: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	data := s.buf.Data[:n]
	if s.depth == 8 {
		// 8-bit WAV is unsigned
		for i := range data {
			data[i] -= 128
		}
	}
	pcm.IntsToFloat32(dst, data, s.depth)

	if err == io.EOF {
		return n, io.EOF
	}
	return n, nil
}

// Decoder reads PCM WAV files of 8, 16, 24 or 32 bits.
type Decoder struct{}

// Decode parses the header of r. Inputs that are not an io.ReadSeeker are
// buffered in memory first.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}

	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("format tag %d: %w", dec.WavAudioFormat, ErrUnsupportedEncoding)
	}

	depth := int(dec.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%d bits: %w", depth, ErrUnsupportedBitDepth)
	}

	if dec.SampleRate == 0 || dec.NumChans == 0 {
		return nil, fmt.Errorf("%w: zero rate or channels", ErrNotWavFile)
	}

	return &source{
		dec:      dec,
		rate:     int(dec.SampleRate),
		channels: int(dec.NumChans),
		depth:    depth,
		buf:      &goaudio.IntBuffer{Format: dec.Format(), SourceBitDepth: depth},
	}, nil
}
