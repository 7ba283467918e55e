// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ik5/audload/loaderr"
)

// IteratorOptions configures an Iterator.
type IteratorOptions struct {
	// AutoReset starts the next epoch transparently instead of returning
	// loaderr.ErrEndOfEpoch.
	AutoReset bool
	// Features and Regions name the outputs returned by Batch.Features and
	// Batch.Regions. Either may be empty.
	Features string
	Regions  string
}

// Iterator pulls batches from a built Graph. It is a single-consumer
// protocol: do not call it from more than one goroutine.
type Iterator struct {
	g    *Graph
	opts IteratorOptions
}

// NewIterator checks that g is built and that the named outputs exist.
func NewIterator(g *Graph, opts IteratorOptions) (*Iterator, error) {
	switch g.State() {
	case Closed:
		return nil, loaderr.ErrClosedPipeline
	case Declared:
		return nil, fmt.Errorf("%w: iterator over an unbuilt graph", loaderr.ErrGraph)
	}

	outputs := g.Outputs()
	for _, name := range []string{opts.Features, opts.Regions} {
		if name != "" && !slices.Contains(outputs, name) {
			return nil, fmt.Errorf("%w: %q is not a graph output", loaderr.ErrGraph, name)
		}
	}

	return &Iterator{g: g, opts: opts}, nil
}

// Next runs the graph once. The returned batch is invalidated by the next
// call.
func (it *Iterator) Next(ctx context.Context) (*Batch, error) {
	b, err := it.g.Run(ctx)
	if errors.Is(err, loaderr.ErrEndOfEpoch) && it.opts.AutoReset {
		if err := it.g.Reset(); err != nil {
			return nil, err
		}
		b, err = it.g.Run(ctx)
		if errors.Is(err, loaderr.ErrEndOfEpoch) {
			return nil, fmt.Errorf("%w: the reader yields no batch in an epoch", loaderr.ErrConfiguration)
		}
	}
	if err != nil {
		return nil, err
	}

	b.features = it.opts.Features
	b.regions = it.opts.Regions
	return b, nil
}

// Reset starts the next epoch.
func (it *Iterator) Reset() error { return it.g.Reset() }

// Epoch returns the current epoch number.
func (it *Iterator) Epoch() int { return it.g.Epoch() }
