// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

// mockPCM serves data in PCMBuffer-sized pieces.
type mockPCM struct {
	data []int
	pos  int
	err  error
}

func (m *mockPCM) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := copy(buf.Data, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func newSource(depth, channels int, data []int) *source {
	return &source{
		dec:      &mockPCM{data: data},
		rate:     44100,
		channels: channels,
		depth:    depth,
		buf:      &goaudio.IntBuffer{},
	}
}

func TestSource_BitDepthNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		depth int
		in    int
		want  float32
	}{
		{8, 64, 0.5},
		{8, -128, -1},
		{16, 16384, 0.5},
		{16, -32768, -1},
		{24, 1 << 22, 0.5},
		{32, -(1 << 30), -0.5},
	}

	for _, tt := range tests {
		s := newSource(tt.depth, 1, []int{tt.in})
		dst := make([]float32, 4)

		n, err := s.ReadSamples(dst)
		if n != 1 || err != io.EOF {
			t.Fatalf("depth %d: ReadSamples() = (%d, %v), want (1, EOF)", tt.depth, n, err)
		}
		if math.Abs(float64(dst[0]-tt.want)) > 1e-6 {
			t.Errorf("depth %d: %d -> %v, want %v", tt.depth, tt.in, dst[0], tt.want)
		}
	}
}

func TestSource_MultipleReads(t *testing.T) {
	t.Parallel()

	data := make([]int, 100)
	for i := range data {
		data[i] = i * 100
	}
	s := newSource(16, 2, data)

	dst := make([]float32, 32)
	total := 0
	for {
		n, err := s.ReadSamples(dst)
		for i := range n {
			if want := float32(data[total+i]) / 32768; dst[i] != want {
				t.Fatalf("sample %d = %v, want %v", total+i, dst[i], want)
			}
		}
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	if total != 100 {
		t.Errorf("total = %d, want 100", total)
	}
}

func TestSource_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("truncated SSND")
	s := &source{dec: &mockPCM{err: boom}, channels: 1, depth: 16, buf: &goaudio.IntBuffer{}}

	if _, err := s.ReadSamples(make([]float32, 8)); !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
	if n, err := s.ReadSamples(nil); n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = (%d, %v), want (0, nil)", n, err)
	}
}

func TestDecoder_Invalid(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("RIFF....WAVEfmt ")} {
		if _, err := (Decoder{}).Decode(bytes.NewReader(data)); !errors.Is(err, ErrNotAiffFile) {
			t.Errorf("Decode(%q) error = %v, want ErrNotAiffFile", data, err)
		}
	}
}

func TestDecoder_EncodedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.aiff")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	data := []int{0, 8192, -8192, 16384, -16384, 0, 100, -100}
	enc := aiff.NewEncoder(f, 22050, 16, 2)
	if err := enc.Write(&goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 22050},
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// exercise the in-memory path for non-seekable readers
	src, err := Decoder{}.Decode(struct{ io.Reader }{bytes.NewReader(raw)})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 22050 || src.Channels() != 2 {
		t.Errorf("format = %d Hz x %d, want 22050 Hz x 2", src.SampleRate(), src.Channels())
	}

	dst := make([]float32, 64)
	n, _ := src.ReadSamples(dst)
	if n != len(data) {
		t.Fatalf("n = %d, want %d", n, len(data))
	}
	if dst[1] != 0.25 || dst[2] != -0.25 {
		t.Errorf("dst[1:3] = %v, want [0.25 -0.25]", dst[1:3])
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	data := make([]int, 44100*2)
	buf := make([]float32, 4096)

	b.ReportAllocs()
	for range b.N {
		s := newSource(16, 2, data)
		for {
			if _, err := s.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
