// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"context"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ik5/audload/pipeline"
)

// SpectrogramOptions configures Spectrogram.
type SpectrogramOptions struct {
	// NFFT is the transform size. Default: 512.
	NFFT int
	// WindowLength is the analysis window, at most NFFT. Default: 320.
	WindowLength int
	// WindowStep is the hop between frames. Default: 160.
	WindowStep int
	// Power is 1 for magnitude or 2 for power. Default: 2.
	Power int
	// Center pads the signal by WindowLength/2 on both sides, reflecting
	// it, so frame f is centred on sample f*WindowStep.
	Center bool
}

// Spectrogram computes a short-time Fourier transform of a mono waveform
// with a periodic Hann window. The output is shaped [NFFT/2+1, frames].
type Spectrogram struct {
	opts   SpectrogramOptions
	window []float64
	pool   sync.Pool
}

type stft struct {
	fft  *fourier.FFT
	seq  []float64
	coef []complex128
}

func NewSpectrogram(opts SpectrogramOptions) (*Spectrogram, error) {
	if opts.NFFT == 0 {
		opts.NFFT = 512
	}
	if opts.WindowLength == 0 {
		opts.WindowLength = 320
	}
	if opts.WindowStep == 0 {
		opts.WindowStep = 160
	}
	if opts.Power == 0 {
		opts.Power = 2
	}
	switch {
	case opts.NFFT < 2:
		return nil, configErr("nfft %d must be at least 2", opts.NFFT)
	case opts.WindowLength < 1 || opts.WindowLength > opts.NFFT:
		return nil, configErr("window_length %d outside [1, %d]", opts.WindowLength, opts.NFFT)
	case opts.WindowStep < 1:
		return nil, configErr("window_step %d must be positive", opts.WindowStep)
	case opts.Power != 1 && opts.Power != 2:
		return nil, configErr("power %d must be 1 or 2", opts.Power)
	}

	s := &Spectrogram{opts: opts, window: hann(opts.WindowLength)}
	s.pool.New = func() any {
		return &stft{
			fft:  fourier.NewFFT(opts.NFFT),
			seq:  make([]float64, opts.NFFT),
			coef: make([]complex128, opts.NFFT/2+1),
		}
	}
	return s, nil
}

// Bins is the number of frequency rows produced.
func (s *Spectrogram) Bins() int { return s.opts.NFFT/2 + 1 }

// Frames is the number of columns produced for n input samples.
func (s *Spectrogram) Frames(n int) int {
	w, step := s.opts.WindowLength, s.opts.WindowStep
	if s.opts.Center {
		if n == 0 {
			return 0
		}
		n += 2 * (w / 2)
	}
	if n < w {
		return 0
	}
	return (n-w)/step + 1
}

func (*Spectrogram) Arity() int { return 1 }

func (s *Spectrogram) Apply(_ context.Context, _ *pipeline.Sample, in []*pipeline.Buffer, out *pipeline.Buffer) error {
	if err := mono(in[0]); err != nil {
		return err
	}
	x := in[0].Data
	bins, frames := s.Bins(), s.Frames(len(x))

	dst := out.Resize(bins * frames)
	out.SetShape(bins, frames)
	out.SampleRate = in[0].SampleRate
	if frames == 0 {
		return nil
	}

	st := s.pool.Get().(*stft)
	defer s.pool.Put(st)

	pad := 0
	if s.opts.Center {
		pad = s.opts.WindowLength / 2
	}
	clear(st.seq)

	for f := range frames {
		start := f*s.opts.WindowStep - pad
		for k, w := range s.window {
			st.seq[k] = w * float64(x[reflect(start+k, len(x))])
		}
		st.fft.Coefficients(st.coef, st.seq)
		for b, c := range st.coef {
			m := cmplx.Abs(c)
			if s.opts.Power == 2 {
				m *= m
			}
			dst[b*frames+f] = float32(m)
		}
	}
	return nil
}

// hann returns a periodic Hann window of length n.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// reflect folds i into [0, n) mirroring around the edges without repeating
// them.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}
