// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audload/internal/pcm"
)

// Encode writes interleaved float32 samples as a 16-bit PCM WAV. Values
// outside [-1, 1] are clipped. w must be seekable so the header sizes can be
// patched once the data is written.
func Encode(w io.WriteSeeker, rate, channels int, samples []float32) error {
	if rate <= 0 || channels <= 0 {
		return fmt.Errorf("wav encode: rate %d, channels %d: invalid format", rate, channels)
	}

	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(pcm.ToInt16(v))
	}

	enc := wav.NewEncoder(w, rate, 16, channels, formatPCM)
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav encode close: %w", err)
	}
	return nil
}
