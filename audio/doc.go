// SPDX-License-Identifier: EPL-2.0

// Package audio provides the streaming primitives the decoder stage is built
// from.
//
//   - Source: pull-based interleaved float32 PCM in [-1, 1]
//   - Decoder and Registry: format decoders keyed by file extension
//   - MonoMixer: channel down-mix by averaging
//   - Resampler: cubic sample-rate conversion
//   - ReadAll: drain a Source into a reusable buffer
//
// A typical chain opens a file, looks the decoder up by extension, and wraps
// the resulting Source:
//
//	dec, err := registry.Lookup(path)
//	src, err := dec.Decode(f)
//	mono := audio.NewMonoMixer(audio.NewResampler(src, 16000))
//	samples, err := audio.ReadAll(mono, buf[:0])
//
// Sources signal the end of the stream with io.EOF, possibly together with a
// final non-empty read.
package audio
