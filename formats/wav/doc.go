// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes RIFF/WAVE files on top of
// github.com/go-audio/wav.
//
// # Decoding
//
// The Decoder accepts integer PCM at 8, 16, 24 and 32 bits with any channel
// count and sample rate, and yields interleaved float32 samples in [-1, 1].
// It is registered under "wav" and "wave" by audload.DefaultRegistry.
//
//	src, err := wav.Decoder{}.Decode(f)
//	switch {
//	case errors.Is(err, wav.ErrNotWavFile):
//	    // not RIFF/WAVE
//	case errors.Is(err, wav.ErrUnsupportedEncoding):
//	    // IEEE float, ADPCM and other non-PCM payloads
//	case errors.Is(err, wav.ErrUnsupportedBitDepth):
//	    // e.g. 12-bit PCM
//	}
//
// # Encoding
//
// Encode writes 16-bit PCM, clipping values outside [-1, 1]. The writer must
// be seekable because the RIFF and data chunk sizes are patched after the
// samples. The command uses it to dump trimmed clips:
//
//	out, _ := os.Create("clip.wav")
//	if err := wav.Encode(out, 16000, 1, samples); err != nil {
//	    return err
//	}
//	return out.Close()
package wav
