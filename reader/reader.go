// SPDX-License-Identifier: EPL-2.0

// Package reader hands out batches of manifest entries for one shard.
//
// A FileReader walks the shard's entries in order (or in a per-epoch
// shuffled order), applying the last batch policy at the end of each epoch.
// It is not safe for concurrent use.
package reader

import (
	"fmt"
	"math/rand/v2"

	"github.com/ik5/audload/loaderr"
	"github.com/ik5/audload/manifest"
	"github.com/ik5/audload/shard"
)

// Options configures a FileReader.
type Options struct {
	BatchSize int
	Shard     shard.Assignment
	Policy    Policy
	// PadLastBatchRepeated pads a Fill batch with the shard's last entry
	// instead of wrapping to its first.
	PadLastBatchRepeated bool
	// Shuffle reorders the shard every epoch with a source derived from
	// Seed and the epoch number.
	Shuffle bool
	Seed    uint64
}

// Chunk is one batch worth of entries. Entries aliases the slice passed to
// Next.
type Chunk struct {
	Entries []manifest.Entry
	// Padded counts slots of a full batch not holding a fresh entry: filler
	// copies under Fill, missing slots under Partial.
	Padded int
	Epoch  int
	// Index is the position of this batch within the epoch.
	Index int
}

// FileReader hands out the entries of one shard in batch-sized chunks. It
// is driven by a single caller, normally the pipeline graph, and is not safe
// for concurrent use.
type FileReader struct {
	entries []manifest.Entry
	opts    Options

	order  []int
	cursor int
	batch  int
	epoch  int
}

// New validates opts against entries and positions the reader at the start
// of epoch 0.
func New(entries []manifest.Entry, opts Options) (*FileReader, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch_size %d must be positive", loaderr.ErrConfiguration, opts.BatchSize)
	}
	if err := opts.Shard.Validate(); err != nil {
		return nil, err
	}
	switch opts.Policy {
	case Fill, Drop, Partial:
	default:
		return nil, fmt.Errorf("%w: last batch policy %v", loaderr.ErrConfiguration, opts.Policy)
	}
	if len(entries) < opts.Shard.NumShards {
		return nil, fmt.Errorf("%w: %d entries cannot fill %d shards",
			loaderr.ErrConfiguration, len(entries), opts.Shard.NumShards)
	}

	r := &FileReader{entries: entries, opts: opts}
	r.load()
	return r, nil
}

func (r *FileReader) load() {
	r.order = r.opts.Shard.AppendIndices(r.order[:0], len(r.entries), r.epoch)
	if r.opts.Shuffle {
		rng := rand.New(rand.NewPCG(r.opts.Seed, uint64(r.epoch)))
		rng.Shuffle(len(r.order), func(i, j int) {
			r.order[i], r.order[j] = r.order[j], r.order[i]
		})
	}
	r.cursor = 0
	r.batch = 0
}

// BatchSize returns the configured batch size.
func (r *FileReader) BatchSize() int { return r.opts.BatchSize }

// Epoch returns the number of completed resets.
func (r *FileReader) Epoch() int { return r.epoch }

// ShardSize returns the number of entries in the current epoch's shard.
func (r *FileReader) ShardSize() int { return len(r.order) }

// Remaining returns the unread entries of the current epoch.
func (r *FileReader) Remaining() int { return len(r.order) - r.cursor }

// BatchesPerEpoch returns how many successful Next calls the current epoch
// yields.
func (r *FileReader) BatchesPerEpoch() int {
	n, b := len(r.order), r.opts.BatchSize
	if r.opts.Policy == Drop {
		return n / b
	}
	return (n + b - 1) / b
}

// Reset starts the next epoch.
func (r *FileReader) Reset() {
	r.epoch++
	r.load()
}

// Next fills dst with the next batch. dst must hold at least BatchSize
// entries. At the end of the epoch it returns loaderr.ErrEndOfEpoch until
// Reset is called.
func (r *FileReader) Next(dst []manifest.Entry) (Chunk, error) {
	b := r.opts.BatchSize
	if len(dst) < b {
		return Chunk{}, fmt.Errorf("%w: destination holds %d entries, batch is %d",
			loaderr.ErrConfiguration, len(dst), b)
	}

	left := len(r.order) - r.cursor
	if left <= 0 || (r.opts.Policy == Drop && left < b) {
		return Chunk{}, loaderr.ErrEndOfEpoch
	}

	take := min(left, b)
	for i := range take {
		dst[i] = r.entries[r.order[r.cursor+i]]
	}
	r.cursor += take

	c := Chunk{Entries: dst[:take], Epoch: r.epoch, Index: r.batch}
	r.batch++

	if take < b {
		c.Padded = b - take
		if r.opts.Policy == Fill {
			for i := take; i < b; i++ {
				src := r.order[(i-take)%len(r.order)]
				if r.opts.PadLastBatchRepeated {
					src = r.order[len(r.order)-1]
				}
				dst[i] = r.entries[src]
			}
			c.Entries = dst[:b]
		}
	}

	return c, nil
}
