// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	// ErrNotWavFile is returned when the RIFF/WAVE header is missing or broken.
	ErrNotWavFile = errors.New("not a WAV file")

	// ErrUnsupportedEncoding is returned for non-PCM payloads such as
	// IEEE float or ADPCM.
	ErrUnsupportedEncoding = errors.New("unsupported WAV encoding")

	// ErrUnsupportedBitDepth is returned for PCM depths other than 8, 16, 24
	// or 32 bits.
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")
)
