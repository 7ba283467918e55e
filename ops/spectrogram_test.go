// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"math"
	"sync"
	"testing"
)

func sine(rate, n int, freq float64) []float32 {
	x := make([]float32, n)
	for i := range x {
		x[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(rate)))
	}
	return x
}

func TestSpectrogram_Frames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		center bool
		n      int
		want   int
	}{
		{"centred", true, 16000, 101},
		{"centred empty", true, 0, 0},
		{"centred short", true, 10, 1},
		{"plain", false, 16000, 99},
		{"plain exact window", false, 320, 1},
		{"plain short", false, 100, 0},
	}

	for _, tt := range tests {
		s, _ := NewSpectrogram(SpectrogramOptions{Center: tt.center})
		if got := s.Frames(tt.n); got != tt.want {
			t.Errorf("%s: Frames(%d) = %d, want %d", tt.name, tt.n, got, tt.want)
		}
	}
}

func TestSpectrogram_SinePeak(t *testing.T) {
	t.Parallel()

	s, err := NewSpectrogram(SpectrogramOptions{Center: true})
	if err != nil {
		t.Fatal(err)
	}
	// 1 kHz falls exactly on bin 32 of a 512-point transform at 16 kHz.
	out := apply(t, s, wave(16000, sine(16000, 16000, 1000)...))

	bins, frames := out.Shape[0], out.Shape[1]
	if bins != 257 || frames != 101 {
		t.Fatalf("Shape = %v, want [257 101]", out.Shape)
	}
	if out.SampleRate != 16000 {
		t.Errorf("SampleRate = %d", out.SampleRate)
	}

	for _, f := range []int{1, 50, 99} {
		best := 0
		for b := range bins {
			if out.Data[b*frames+f] > out.Data[best*frames+f] {
				best = b
			}
		}
		if best != 32 {
			t.Errorf("frame %d peaks at bin %d, want 32", f, best)
		}
	}
}

func TestSpectrogram_PowerIsSquaredMagnitude(t *testing.T) {
	t.Parallel()

	x := wave(8000, sine(8000, 2000, 440)...)
	mag, _ := NewSpectrogram(SpectrogramOptions{Power: 1})
	pow, _ := NewSpectrogram(SpectrogramOptions{Power: 2})

	m := apply(t, mag, x)
	p := apply(t, pow, x)

	for i := range m.Data {
		want := float64(m.Data[i]) * float64(m.Data[i])
		if !near(float64(p.Data[i]), want, 1e-3*max(want, 1)) {
			t.Fatalf("power[%d] = %v, want %v", i, p.Data[i], want)
		}
	}
}

func TestSpectrogram_EmptyInput(t *testing.T) {
	t.Parallel()

	s, _ := NewSpectrogram(SpectrogramOptions{})
	out := apply(t, s, wave(8000, 1, 2, 3))

	if out.Shape[0] != 257 || out.Shape[1] != 0 || len(out.Data) != 0 {
		t.Errorf("Shape = %v len = %d, want [257 0] and no data", out.Shape, len(out.Data))
	}
}

func TestSpectrogram_Concurrent(t *testing.T) {
	t.Parallel()

	s, _ := NewSpectrogram(SpectrogramOptions{Center: true})
	x := wave(16000, sine(16000, 4000, 1000)...)
	want := apply(t, s, x).Data

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			out, err := tryApply(s, x)
			if err != nil {
				t.Error(err)
				return
			}
			for i := range want {
				if out.Data[i] != want[i] {
					t.Errorf("value %d differs across goroutines", i)
					return
				}
			}
		})
	}
	wg.Wait()
}

func TestReflect(t *testing.T) {
	t.Parallel()

	tests := []struct{ i, n, want int }{
		{-1, 5, 1}, {-4, 5, 4}, {5, 5, 3}, {8, 5, 0}, {2, 5, 2}, {-3, 1, 0},
	}
	for _, tt := range tests {
		if got := reflect(tt.i, tt.n); got != tt.want {
			t.Errorf("reflect(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func BenchmarkSpectrogram(b *testing.B) {
	s, _ := NewSpectrogram(SpectrogramOptions{Center: true})
	x := wave(16000, sine(16000, 16000, 440)...)
	b.ReportAllocs()

	for b.Loop() {
		_, _ = tryApply(s, x)
	}
}
