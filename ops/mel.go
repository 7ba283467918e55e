// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"context"
	"math"
	"sync"

	"github.com/ik5/audload/pipeline"
)

// MelOptions configures MelFilterBank.
type MelOptions struct {
	// NFilter is the number of mel bands. Default: 80.
	NFilter int
	// SampleRate of the analysed audio. 0 takes it from the input buffer.
	SampleRate int
	// FMin and FMax bound the bands in Hz. FMax 0 means SampleRate/2.
	FMin float64
	FMax float64
}

// MelFilterBank maps a [bins, frames] spectrogram onto NFilter triangular,
// area-normalised filters spaced evenly on the HTK mel scale. The output is
// shaped [NFilter, frames].
type MelFilterBank struct {
	opts MelOptions

	mu    sync.RWMutex
	banks map[melKey]*melBank
}

type melKey struct {
	bins, rate int
}

// melBank stores for every filter the first bin it covers and its weights.
type melBank struct {
	first   []int
	weights [][]float32
}

func NewMelFilterBank(opts MelOptions) (*MelFilterBank, error) {
	if opts.NFilter == 0 {
		opts.NFilter = 80
	}
	switch {
	case opts.NFilter < 1:
		return nil, configErr("nfilter %d must be positive", opts.NFilter)
	case opts.SampleRate < 0:
		return nil, configErr("mel sample_rate %d must not be negative", opts.SampleRate)
	case opts.FMin < 0:
		return nil, configErr("fmin %v must not be negative", opts.FMin)
	case opts.FMax < 0 || (opts.FMax > 0 && opts.FMax <= opts.FMin):
		return nil, configErr("fmax %v must be above fmin %v", opts.FMax, opts.FMin)
	case opts.SampleRate > 0 && opts.FMax > float64(opts.SampleRate)/2:
		return nil, configErr("fmax %v above nyquist %d", opts.FMax, opts.SampleRate/2)
	}
	return &MelFilterBank{opts: opts, banks: make(map[melKey]*melBank)}, nil
}

func (*MelFilterBank) Arity() int { return 1 }

func (m *MelFilterBank) Apply(_ context.Context, _ *pipeline.Sample, in []*pipeline.Buffer, out *pipeline.Buffer) error {
	bins, frames, err := matrix(in[0])
	if err != nil {
		return err
	}
	rate := m.opts.SampleRate
	if rate == 0 {
		rate = in[0].SampleRate
	}
	if rate <= 0 {
		return configErr("mel filter bank needs a sample rate")
	}
	if bins < 2 {
		return configErr("mel filter bank needs at least 2 bins, got %d", bins)
	}

	bank, err := m.bank(bins, rate)
	if err != nil {
		return err
	}

	spec := in[0].Data
	dst := out.Resize(m.opts.NFilter * frames)
	out.SetShape(m.opts.NFilter, frames)
	out.SampleRate = in[0].SampleRate
	clear(dst)

	for i, w := range bank.weights {
		row := dst[i*frames : (i+1)*frames]
		for k, wk := range w {
			src := spec[(bank.first[i]+k)*frames:][:frames]
			for f, v := range src {
				row[f] += wk * v
			}
		}
	}
	return nil
}

func (m *MelFilterBank) bank(bins, rate int) (*melBank, error) {
	key := melKey{bins: bins, rate: rate}

	m.mu.RLock()
	b, ok := m.banks[key]
	m.mu.RUnlock()
	if ok {
		return b, nil
	}

	fmax := m.opts.FMax
	if fmax == 0 {
		fmax = float64(rate) / 2
	}
	if fmax > float64(rate)/2 || fmax <= m.opts.FMin {
		return nil, configErr("mel band [%v, %v] does not fit sample rate %d", m.opts.FMin, fmax, rate)
	}
	b = newMelBank(m.opts.NFilter, bins, rate, m.opts.FMin, fmax)

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.banks[key]; ok {
		return cached, nil
	}
	m.banks[key] = b
	return b, nil
}

func hzToMel(f float64) float64 { return 2595 * math.Log10(1+f/700) }

func melToHz(m float64) float64 { return 700 * (math.Pow(10, m/2595) - 1) }

func newMelBank(nfilter, bins, rate int, fmin, fmax float64) *melBank {
	nfft := 2 * (bins - 1)
	hzPerBin := float64(rate) / float64(nfft)

	lo, hi := hzToMel(fmin), hzToMel(fmax)
	edges := make([]float64, nfilter+2)
	for i := range edges {
		edges[i] = melToHz(lo + (hi-lo)*float64(i)/float64(nfilter+1))
	}

	b := &melBank{
		first:   make([]int, nfilter),
		weights: make([][]float32, nfilter),
	}
	for i := range nfilter {
		left, center, right := edges[i], edges[i+1], edges[i+2]
		norm := 2 / (right - left)

		first := 0
		var w []float32
		for k := range bins {
			f := float64(k) * hzPerBin
			var v float64
			switch {
			case f > left && f <= center:
				v = (f - left) / (center - left)
			case f > center && f < right:
				v = (right - f) / (right - center)
			}
			if v <= 0 {
				if len(w) > 0 {
					break
				}
				continue
			}
			if len(w) == 0 {
				first = k
			}
			w = append(w, float32(v*norm))
		}
		b.first[i] = first
		b.weights[i] = w
	}
	return b
}
