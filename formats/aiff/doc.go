// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes Audio Interchange File Format files through
// github.com/go-audio/aiff.
//
// # Supported Formats
//
// Uncompressed big-endian integer PCM only:
//   - 8, 16, 24 and 32 bits per sample
//   - any channel count and sample rate declared in the COMM chunk
//
// AIFF-C compression types are not decoded. Files with another sample size
// fail with ErrUnsupportedBitDepth, and a missing or broken FORM header or
// COMM chunk fails with ErrNotAiffFile.
//
// # Decoding
//
// go-audio needs to seek, so an input that is not an io.ReadSeeker is read
// into memory first. Opened files are passed through as they are:
//
//	f, _ := os.Open("take.aiff")
//	defer f.Close()
//	src, err := aiff.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// Samples are normalised by the bit depth into float32 in [-1, 1] and
// returned interleaved. The decoder is registered under "aif" and "aiff" by
// audload.DefaultRegistry.
package aiff
