// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"context"
	"math"

	"github.com/ik5/audload/pipeline"
)

// RegionOptions configures NonSilentRegion.
type RegionOptions struct {
	// CutoffDB is the threshold relative to the reference power, in dB.
	// Default: -60.
	CutoffDB float64
	// WindowLength is the length of the moving mean-square window.
	// Default: 2048.
	WindowLength int
	// ReferencePower is the power 0 dB refers to. 0 uses the peak of the
	// envelope.
	ReferencePower float64
	// ResetInterval recomputes the running window sum every this many
	// samples to keep rounding error bounded. Default: 8192; negative
	// disables.
	ResetInterval int
}

func (o *RegionOptions) defaults() {
	if o.CutoffDB == 0 {
		o.CutoffDB = -60
	}
	if o.WindowLength == 0 {
		o.WindowLength = 2048
	}
	if o.ResetInterval == 0 {
		o.ResetInterval = 8192
	}
}

// NonSilentRegion outputs Ints = [begin, length], the single span bounding
// every non-silent sample of a mono waveform. Disjoint loud parts are merged
// into one region. A signal with no sample above the cutoff yields [0, 0].
type NonSilentRegion struct {
	opts RegionOptions
}

// NewNonSilentRegion fills defaults (cutoff -60 dB, window 2048, reset
// interval 8192) and rejects a positive cutoff, a window shorter than one
// sample and a negative reference power.
func NewNonSilentRegion(opts RegionOptions) (*NonSilentRegion, error) {
	opts.defaults()
	switch {
	case opts.CutoffDB > 0:
		return nil, configErr("cutoff_db %v must not be positive", opts.CutoffDB)
	case opts.WindowLength < 1:
		return nil, configErr("window_length %d must be positive", opts.WindowLength)
	case opts.ReferencePower < 0:
		return nil, configErr("reference_power %v must not be negative", opts.ReferencePower)
	}
	return &NonSilentRegion{opts: opts}, nil
}

func (*NonSilentRegion) Arity() int { return 1 }

func (r *NonSilentRegion) Apply(_ context.Context, _ *pipeline.Sample, in []*pipeline.Buffer, out *pipeline.Buffer) error {
	if err := mono(in[0]); err != nil {
		return err
	}
	reg := DetectNonSilent(in[0].Data, r.opts)
	out.SetInts(reg.Begin, reg.Length)
	out.SetShape(2)
	return nil
}

// DetectNonSilent runs the detector on x. Zero-valued options take the same
// defaults as NewNonSilentRegion.
//
// The envelope at j is the mean square of the window x[j-W+1 .. j], with x
// zero outside its bounds, for j in [0, len(x)+W-1). The region begins at the
// first j whose envelope reaches reference*10^(cutoff/10) and ends at the
// last such j shifted back by W-1.
func DetectNonSilent(x []float32, opts RegionOptions) pipeline.Region {
	opts.defaults()
	n, w := len(x), opts.WindowLength
	if n == 0 {
		return pipeline.Region{}
	}

	env := envelope{x: x, w: w, reset: opts.ResetInterval}

	ref := opts.ReferencePower
	if ref == 0 {
		env.each(func(_ int, e float64) {
			ref = max(ref, e)
		})
	}
	if ref <= 0 {
		return pipeline.Region{}
	}

	thr := ref * math.Pow(10, opts.CutoffDB/10)
	first, last := -1, -1
	env.each(func(j int, e float64) {
		if e >= thr && e > 0 {
			if first < 0 {
				first = j
			}
			last = j
		}
	})
	if first < 0 {
		return pipeline.Region{}
	}

	end := min(max(last-(w-1), first), n-1)
	return pipeline.Region{Begin: first, Length: end - first + 1}
}

// envelope walks the moving mean square of x over windows of w samples.
type envelope struct {
	x     []float32
	w     int
	reset int
}

func (e envelope) each(fn func(j int, power float64)) {
	n, w := len(e.x), e.w
	inv := 1 / float64(w)
	var sum float64

	for j := range n + w - 1 {
		if e.reset > 0 && j > 0 && j%e.reset == 0 {
			sum = 0
			for k := max(j-w+1, 0); k <= min(j, n-1); k++ {
				v := float64(e.x[k])
				sum += v * v
			}
		} else {
			if j < n {
				v := float64(e.x[j])
				sum += v * v
			}
			if old := j - w; old >= 0 && old < n {
				v := float64(e.x[old])
				sum -= v * v
			}
		}
		fn(j, max(sum, 0)*inv)
	}
}
