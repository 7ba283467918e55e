// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"errors"
	"fmt"

	"github.com/ik5/audload/loaderr"
	"github.com/ik5/audload/pipeline"
)

var (
	// ErrShape is returned when an input buffer does not have the layout an
	// operator expects, e.g. a multi-channel waveform fed to a mono stage.
	ErrShape = errors.New("unexpected input shape")

	// ErrEmptyAudio marks a file that decoded to zero samples.
	ErrEmptyAudio = errors.New("no audio samples")
)

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", loaderr.ErrConfiguration, fmt.Sprintf(format, args...))
}

// mono checks that b holds a single-channel waveform. Waveforms are shaped
// [frames] or [frames, channels].
func mono(b *pipeline.Buffer) error {
	if len(b.Shape) > 1 && b.Shape[1] != 1 {
		return fmt.Errorf("%w: want mono waveform, got shape %v", ErrShape, b.Shape)
	}
	return nil
}

// matrix returns the dimensions of a 2-D buffer.
func matrix(b *pipeline.Buffer) (rows, cols int, err error) {
	if len(b.Shape) != 2 || b.Shape[0]*b.Shape[1] != len(b.Data) {
		return 0, 0, fmt.Errorf("%w: want [rows, cols] matching %d values, got %v", ErrShape, len(b.Data), b.Shape)
	}
	return b.Shape[0], b.Shape[1], nil
}
