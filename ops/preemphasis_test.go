// SPDX-License-Identifier: EPL-2.0

package ops

import (
	"errors"
	"testing"

	"github.com/ik5/audload/loaderr"
)

func TestPreemphasis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		border Border
		want   []float32
	}{
		{BorderClamp, []float32{0.5, 1.5, 2}},
		{BorderZero, []float32{1, 1.5, 2}},
		{BorderReflect, []float32{0, 1.5, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.border.String(), func(t *testing.T) {
			t.Parallel()

			p, err := NewPreemphasis(PreemphasisOptions{Coeff: 0.5, Border: tt.border})
			if err != nil {
				t.Fatal(err)
			}
			out := apply(t, p, wave(16000, 1, 2, 3))
			for i, w := range tt.want {
				if !near(float64(out.Data[i]), float64(w), 1e-6) {
					t.Errorf("Data[%d] = %v, want %v", i, out.Data[i], w)
				}
			}
			if out.SampleRate != 16000 {
				t.Errorf("SampleRate = %d", out.SampleRate)
			}
		})
	}
}

func TestPreemphasis_DefaultsAndEdges(t *testing.T) {
	t.Parallel()

	p, _ := NewPreemphasis(PreemphasisOptions{})
	if p.opts.Coeff != 0.97 {
		t.Errorf("default coeff = %v, want 0.97", p.opts.Coeff)
	}

	if out := apply(t, p, wave(8000)); len(out.Data) != 0 {
		t.Errorf("empty input gave %v", out.Data)
	}

	r, _ := NewPreemphasis(PreemphasisOptions{Coeff: 0.5, Border: BorderReflect})
	if out := apply(t, r, wave(8000, 4)); out.Data[0] != 4 {
		t.Errorf("single sample reflect = %v, want 4", out.Data[0])
	}
}

func TestParseBorder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Border
		wantErr bool
	}{
		{"", BorderClamp, false},
		{"clamp", BorderClamp, false},
		{"ZERO", BorderZero, false},
		{" reflect ", BorderReflect, false},
		{"wrap", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseBorder(tt.in)
		if tt.wantErr {
			if !errors.Is(err, loaderr.ErrConfiguration) {
				t.Errorf("ParseBorder(%q) error = %v, want ErrConfiguration", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseBorder(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
