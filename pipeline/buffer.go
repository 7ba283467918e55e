// SPDX-License-Identifier: EPL-2.0

package pipeline

import "github.com/ik5/audload/internal/pcm"

// Buffer is the output of one stage for one sample. Buffers live in the
// graph's arena and are reused by every run, so stages must size them with
// Resize instead of allocating.
type Buffer struct {
	// Data holds the float payload; its length is the valid length.
	Data []float32
	// Shape describes Data row-major, e.g. [n] for a waveform or
	// [bins, frames] for a spectrogram.
	Shape []int
	// SampleRate is carried by audio payloads.
	SampleRate int
	// Ints holds integer payloads such as a label or a region.
	Ints []int
	// Ref holds a string payload such as a file path.
	Ref string
}

// Resize makes Data n long, reusing capacity, and sets Shape to [n].
func (b *Buffer) Resize(n int) []float32 {
	b.Data = pcm.Grow(b.Data, n)
	b.Shape = append(b.Shape[:0], n)
	return b.Data
}

// SetShape replaces Shape without touching Data.
func (b *Buffer) SetShape(dims ...int) {
	b.Shape = append(b.Shape[:0], dims...)
}

// SetInts replaces Ints.
func (b *Buffer) SetInts(v ...int) {
	b.Ints = append(b.Ints[:0], v...)
}

// Reset empties the buffer but keeps its capacity.
func (b *Buffer) Reset() {
	b.Data = b.Data[:0]
	b.Shape = b.Shape[:0]
	b.Ints = b.Ints[:0]
	b.SampleRate = 0
	b.Ref = ""
}

// Len is the number of valid float values.
func (b *Buffer) Len() int { return len(b.Data) }

// Region is a [Begin, Begin+Length) span in samples.
type Region struct {
	Begin  int
	Length int
}

// End returns Begin+Length.
func (r Region) End() int { return r.Begin + r.Length }
