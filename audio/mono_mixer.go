// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"

	"github.com/ik5/audload/internal/pcm"
)

// MonoMixer down-mixes an interleaved multi-channel Source to one channel by
// averaging every frame. Mono input passes straight through.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{src: src}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("mono mixer: %w", err)
	}
	return nil
}

// ReadSamples writes at most len(dst) mono frames.
func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	ch := m.src.Channels()
	if ch == 1 {
		return m.src.ReadSamples(dst)
	}

	m.tmp = pcm.Grow(m.tmp, len(dst)*ch)
	n, err := m.src.ReadSamples(m.tmp)
	frames := n / ch

	switch ch {
	case 2:
		for f := range frames {
			dst[f] = (m.tmp[2*f] + m.tmp[2*f+1]) * 0.5
		}
	default:
		inv := 1 / float32(ch)
		for f := range frames {
			var sum float32
			for _, v := range m.tmp[f*ch : (f+1)*ch] {
				sum += v
			}
			dst[f] = sum * inv
		}
	}

	return frames, err
}
