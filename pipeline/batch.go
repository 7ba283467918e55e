// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"github.com/ik5/audload/internal/pcm"
	"github.com/ik5/audload/manifest"
)

// Failure records a sample flagged invalid during a run.
type Failure struct {
	Index int
	Path  string
	Err   error
}

// Batch is the result of one graph run. All slices and buffers belong to the
// graph and are overwritten by the next Run, Reset or Close.
type Batch struct {
	// Entries are the manifest entries of each slot, padding included.
	Entries []manifest.Entry
	// Valid reports per slot whether every stage succeeded.
	Valid    []bool
	Failures []Failure
	// Padded counts slots of a full batch that do not hold a fresh entry.
	Padded int
	Epoch  int
	// Index is the position of the batch within its epoch.
	Index int

	names   []string
	index   map[string]int
	outputs map[string][]Buffer

	features string
	regions  string

	labels     []int
	regionsBuf []Region
	dense      map[string]*Dense
}

// Size is the number of filled slots.
func (b *Batch) Size() int { return len(b.Entries) }

// OutputNames lists the exposed stages in SetOutputs order.
func (b *Batch) OutputNames() []string { return b.names }

// Output returns the per-slot buffers of a declared output, or nil.
func (b *Batch) Output(name string) []Buffer { return b.outputs[name] }

// Labels returns the label of every slot.
func (b *Batch) Labels() []int {
	b.labels = b.labels[:0]
	for _, e := range b.Entries {
		b.labels = append(b.labels, e.Label)
	}
	return b.labels
}

// Features returns the buffers of the iterator's features output.
func (b *Batch) Features() []Buffer { return b.outputs[b.features] }

// Regions decodes the iterator's regions output. Invalid slots, and slots
// whose buffer holds fewer than two integers, get the zero Region.
func (b *Batch) Regions() []Region {
	b.regionsBuf = b.regionsBuf[:0]
	for _, buf := range b.outputs[b.regions] {
		var r Region
		if len(buf.Ints) >= 2 {
			r = Region{Begin: buf.Ints[0], Length: buf.Ints[1]}
		}
		b.regionsBuf = append(b.regionsBuf, r)
	}
	return b.regionsBuf
}

// Dense is a rectangular copy of a ragged output: Rows slots of Cols values,
// zero padded on the right. Lengths holds the valid length of each row and
// Shapes the original shape of each slot.
type Dense struct {
	Data    []float32
	Rows    int
	Cols    int
	Lengths []int
	Shapes  [][]int
}

// Row returns slot i.
func (d *Dense) Row(i int) []float32 { return d.Data[i*d.Cols : (i+1)*d.Cols] }

// Dense packs output name into a zero-padded block. Multi-dimensional
// payloads are flattened row-major. The block is reused across batches.
// It returns nil for an unknown name.
func (b *Batch) Dense(name string) *Dense {
	bufs, ok := b.outputs[name]
	if !ok {
		return nil
	}
	if b.dense == nil {
		b.dense = make(map[string]*Dense)
	}
	d := b.dense[name]
	if d == nil {
		d = &Dense{}
		b.dense[name] = d
	}

	cols := 0
	for i := range bufs {
		cols = max(cols, len(bufs[i].Data))
	}

	d.Rows, d.Cols = len(bufs), cols
	d.Data = pcm.Grow(d.Data, d.Rows*d.Cols)
	clear(d.Data)
	d.Lengths = d.Lengths[:0]
	for len(d.Shapes) < len(bufs) {
		d.Shapes = append(d.Shapes, nil)
	}
	d.Shapes = d.Shapes[:len(bufs)]

	for i := range bufs {
		copy(d.Row(i), bufs[i].Data)
		d.Lengths = append(d.Lengths, len(bufs[i].Data))
		d.Shapes[i] = append(d.Shapes[i][:0], bufs[i].Shape...)
	}
	return d
}
