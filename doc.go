// SPDX-License-Identifier: EPL-2.0

// Package audload is a sharded, batched audio loading pipeline for training
// and evaluation workloads.
//
// A pipeline reads a manifest of "path label" lines, assigns a deterministic
// subset to each shard, decodes the audio in parallel, and runs per-sample
// operators such as non-silent region detection and log-mel feature
// extraction. Batches come out of a pipeline.Iterator.
//
// This package holds the glue shared by the stages: the format registry and a
// one-call file decoder.
//
//	reg := audload.DefaultRegistry()
//	samples, info, err := audload.DecodeFile(reg, "clip.wav", audload.DecodeOptions{
//	    Downmix:    true,
//	    SampleRate: 16000,
//	}, nil)
//
// # Subpackages
//
//   - manifest: parse file lists
//   - shard: shard assignment and epoch rotation
//   - reader: batches of file/label pairs with last-batch policies
//   - audio and formats/...: streaming decoders and converters
//   - ops: per-sample stage operators
//   - pipeline: graph construction, execution and iteration
//   - loaderr: error taxonomy shared by all of the above
package audload
