// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"context"
	"math/rand/v2"

	"github.com/ik5/audload/manifest"
)

// Op is one stage kernel. Apply runs once per sample with the outputs of the
// declared inputs, in declaration order, and writes into out, which has been
// Reset. Apply may be called concurrently for different samples and must not
// keep in or out after returning.
//
// Returning an error that matches loaderr.ErrDecode flags the sample invalid
// and lets the rest of the batch complete; any other error fails the run.
type Op interface {
	Arity() int
	Apply(ctx context.Context, s *Sample, in []*Buffer, out *Buffer) error
}

// Sample identifies the batch slot being processed.
type Sample struct {
	// Index is the slot in the batch.
	Index int
	Entry manifest.Entry
	// Path is Entry.Path resolved against the file root.
	Path  string
	Epoch int
	Batch int

	// Seed and Stream select a reproducible random stream for this slot.
	Seed   uint64
	Stream uint64
	// Stage is the position of the running stage in build order.
	Stage int
}

// Rand returns a generator private to this sample and stage. The same graph
// seed, epoch, batch, slot and stage always give the same sequence.
func (s *Sample) Rand() *rand.Rand {
	return rand.New(rand.NewPCG(s.Seed, s.Stream^uint64(s.Stage)*0x9e3779b97f4a7c15))
}

func sampleStream(seed uint32, epoch, batch, index int) (uint64, uint64) {
	return uint64(seed)<<32 | uint64(uint32(epoch)), uint64(uint32(batch))<<32 | uint64(uint32(index))
}
