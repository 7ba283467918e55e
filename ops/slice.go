// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"context"
	"fmt"

	"github.com/ik5/audload/pipeline"
)

// Slice cuts a waveform to the region produced by NonSilentRegion. Its
// inputs are the waveform and the region, in that order. The region is
// clamped to the waveform, so an empty region yields an empty output.
type Slice struct{}

func NewSlice() *Slice { return &Slice{} }

func (*Slice) Arity() int { return 2 }

func (*Slice) Apply(_ context.Context, _ *pipeline.Sample, in []*pipeline.Buffer, out *pipeline.Buffer) error {
	wave, reg := in[0], in[1]
	if err := mono(wave); err != nil {
		return err
	}
	if len(reg.Ints) != 2 {
		return fmt.Errorf("%w: region wants [begin, length], got %v", ErrShape, reg.Ints)
	}

	n := len(wave.Data)
	begin := min(max(reg.Ints[0], 0), n)
	end := min(max(begin+reg.Ints[1], begin), n)

	dst := out.Resize(end - begin)
	copy(dst, wave.Data[begin:end])
	out.SampleRate = wave.SampleRate
	return nil
}
