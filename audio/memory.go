// SPDX-License-Identifier: EPL-2.0

package audio

import "io"

// Memory is a Source over interleaved samples already in memory, so decoded
// audio can be fed back through a Resampler or MonoMixer. data is read, never
// written. A trailing partial frame is ignored.
type Memory struct {
	data []float32
	rate int
	ch   int
	pos  int
}

func NewMemory(data []float32, rate, channels int) *Memory {
	ch := max(channels, 1)
	return &Memory{data: data[:len(data)-len(data)%ch], rate: rate, ch: ch}
}

func (m *Memory) SampleRate() int { return m.rate }
func (m *Memory) Channels() int   { return m.ch }
func (m *Memory) BufSize() int    { return 4096 }
func (m *Memory) Close() error    { return nil }

func (m *Memory) ReadSamples(dst []float32) (int, error) {
	dst = dst[:len(dst)-len(dst)%m.ch]
	n := copy(dst, m.data[m.pos:])
	m.pos += n
	if m.pos == len(m.data) {
		return n, io.EOF
	}
	return n, nil
}
