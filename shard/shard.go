// SPDX-License-Identifier: EPL-2.0

// Package shard partitions a manifest across pipeline instances.
//
// Entry i belongs to shard i mod NumShards. With StickToShard unset the
// instance moves to the next shard every epoch, so over NumShards epochs it
// sees the whole manifest.
package shard

import (
	"fmt"

	"github.com/ik5/audload/loaderr"
)

// Assignment selects the shard a pipeline instance reads.
type Assignment struct {
	ShardID      int
	NumShards    int
	StickToShard bool
}

// Single is the assignment of an unsharded pipeline.
var Single = Assignment{ShardID: 0, NumShards: 1, StickToShard: true}

// Validate reports an out-of-range shard id or count as
// loaderr.ErrConfiguration.
func (a Assignment) Validate() error {
	switch {
	case a.NumShards <= 0:
		return fmt.Errorf("%w: num_shards %d must be positive", loaderr.ErrConfiguration, a.NumShards)
	case a.ShardID < 0:
		return fmt.Errorf("%w: shard_id %d must not be negative", loaderr.ErrConfiguration, a.ShardID)
	case a.ShardID >= a.NumShards:
		return fmt.Errorf("%w: shard_id %d must be below num_shards %d", loaderr.ErrConfiguration, a.ShardID, a.NumShards)
	}
	return nil
}

// Effective returns the shard read during epoch.
func (a Assignment) Effective(epoch int) int {
	if a.StickToShard || a.NumShards <= 1 {
		return a.ShardID
	}
	return (a.ShardID + epoch%a.NumShards) % a.NumShards
}

// Size returns how many of total entries shard owns.
func (a Assignment) Size(total, shard int) int {
	if total <= shard {
		return 0
	}
	return (total-shard-1)/a.NumShards + 1
}

// Indices returns the manifest indices read during epoch, in manifest order.
// The assignment must be valid.
func (a Assignment) Indices(total, epoch int) []int {
	return a.AppendIndices(nil, total, epoch)
}

// AppendIndices is Indices appending to dst.
func (a Assignment) AppendIndices(dst []int, total, epoch int) []int {
	s := a.Effective(epoch)
	for i := s; i < total; i += a.NumShards {
		dst = append(dst, i)
	}
	return dst
}

// Partition returns the indices of every shard for epoch 0.
func (a Assignment) Partition(total int) [][]int {
	out := make([][]int, a.NumShards)
	for s := range out {
		sa := Assignment{ShardID: s, NumShards: a.NumShards, StickToShard: true}
		out[s] = sa.AppendIndices(make([]int, 0, a.Size(total, s)), total, 0)
	}
	return out
}
