// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 streams with github.com/hajimehoshi/go-mp3.
//
// # Decoding
//
// Decoder implements audio.Decoder and is registered under the "mp3"
// extension by audload.DefaultRegistry:
//
//	f, _ := os.Open("clip.mp3")
//	defer f.Close()
//	src, err := mp3.Decoder{}.Decode(f)
//	if errors.Is(err, mp3.ErrInvalidStream) {
//	    // no MPEG frame could be found
//	}
//	samples, err := audio.ReadAll(src, nil)
//
// # Output Format
//
// The underlying decoder always emits 16-bit stereo:
//   - Sample format: float32 in [-1, 1], converted from little-endian int16
//   - Channels: always 2; mono recordings are duplicated across both
//   - Sample rate: whatever the first frame declares
//
// Pair the source with audio.NewMonoMixer, or decode through
// audload.DecodeFile with Downmix set, to get one channel back.
//
// # Limitations
//
//   - Decoding only; there is no encoder.
//   - Trailing bytes that do not fill a whole stereo frame are dropped.
//   - Read errors after the first frame are returned wrapped, and the
//     pipeline's decoder stage turns them into a per-sample decode failure.
package mp3
