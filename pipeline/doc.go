// SPDX-License-Identifier: EPL-2.0

// Package pipeline runs a declared graph of per-sample stages over batches
// of manifest entries.
//
// A Graph moves through four states:
//
//	Declared --Build--> Built --Run--> Running --Close--> Closed
//
// Stages are declared with Input and Add and do nothing until Build, which
// orders them topologically and allocates one Buffer per stage and batch
// slot. Each Run pulls one batch from the reader and processes its samples
// on at most Config.NumThreads goroutines; within one sample, stages run in
// dependency order. Buffers are reused between runs, so a Batch is only valid
// until the next call.
//
//	g, _ := pipeline.New(pipeline.Config{BatchSize: 8, NumThreads: 4})
//	file, _ := g.Input(r)
//	dec, _ := ops.NewAudioDecoder(ops.DecoderOptions{Downmix: true})
//	det, _ := ops.NewNonSilentRegion(ops.RegionOptions{CutoffDB: -60})
//	audio := g.Add("audio", dec, file)
//	regions := g.Add("regions", det, audio)
//	g.SetOutputs(audio, regions)
//	if err := g.Build(); err != nil {
//	    return err
//	}
//	it, _ := pipeline.NewIterator(g, pipeline.IteratorOptions{AutoReset: true, Features: audio, Regions: regions})
//	b, err := it.Next(ctx)
//
// A stage error matching loaderr.ErrDecode only invalidates its sample; the
// rest of the batch completes and the failure is listed in Batch.Failures.
package pipeline
