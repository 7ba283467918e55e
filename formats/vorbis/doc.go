// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with
// github.com/jfreymuth/oggvorbis.
//
// Decoder is registered under "ogg" and "oga" by audload.DefaultRegistry.
// The reader already produces float32 samples, so the Source fills the
// caller's buffer directly with no intermediate conversion:
//
//	src, err := vorbis.Decoder{}.Decode(f)
//	if err != nil {
//	    return err // wraps vorbis.ErrInvalidStream
//	}
//	fmt.Println(src.SampleRate(), src.Channels())
//
// # Output Format
//
//   - Sample format: float32, interleaved, clamped to [-1, 1]
//   - Channels: as encoded; any count is passed through
//   - Sample rate: as encoded
//
// Reads are trimmed to whole frames, so a buffer whose length is not a
// multiple of the channel count is only partly filled.
package vorbis
