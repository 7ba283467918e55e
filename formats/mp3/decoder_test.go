// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// mockMP3 serves int16 samples as little-endian bytes in chunks of at most
// step bytes, mimicking the frame-sized reads of go-mp3.
type mockMP3 struct {
	data []byte
	pos  int
	step int
	err  error
}

func newMock(samples []int16, step int) *mockMP3 {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, samples)
	return &mockMP3{data: buf.Bytes(), step: step}
}

func (m *mockMP3) SampleRate() int { return 44100 }

func (m *mockMP3) Read(p []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n := min(len(p), m.step, len(m.data)-m.pos)
	copy(p, m.data[m.pos:m.pos+n])
	m.pos += n
	return n, nil
}

func TestDecoder_Invalid(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("This is not MP3 data")} {
		_, err := Decoder{}.Decode(bytes.NewReader(data))
		if !errors.Is(err, ErrInvalidStream) {
			t.Errorf("Decode(%q) error = %v, want ErrInvalidStream", data, err)
		}
	}
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	s := &source{dec: newMock(nil, 64), rate: 44100}
	if s.SampleRate() != 44100 || s.Channels() != 2 || s.BufSize() != 4096 {
		t.Errorf("metadata = (%d, %d, %d)", s.SampleRate(), s.Channels(), s.BufSize())
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	samples := []int16{16384, -16384, 32767, -32768, 0, 0, 8192, -8192, 1, -1}

	tests := []struct {
		name string
		step int
		dst  int
	}{
		{"large reads", 4096, 64},
		{"odd steps", 3, 64},
		{"small dst", 64, 2},
		{"odd dst", 5, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &source{dec: newMock(samples, tt.step), rate: 44100}
			dst := make([]float32, tt.dst)
			var got []float32
			for {
				n, err := s.ReadSamples(dst)
				if n%2 != 0 {
					t.Fatalf("n = %d, not a whole frame", n)
				}
				got = append(got, dst[:n]...)
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("ReadSamples() error = %v", err)
				}
			}

			if len(got) != len(samples) {
				t.Fatalf("len = %d, want %d", len(got), len(samples))
			}
			for i, v := range samples {
				if want := float32(v) / 32768; got[i] != want {
					t.Errorf("got[%d] = %v, want %v", i, got[i], want)
				}
			}
		})
	}
}

func TestSource_EOFIsSticky(t *testing.T) {
	t.Parallel()

	s := &source{dec: newMock([]int16{1, 2}, 64), rate: 44100}
	dst := make([]float32, 8)

	if n, err := s.ReadSamples(dst); n != 2 || err != io.EOF {
		t.Errorf("first read = (%d, %v), want (2, EOF)", n, err)
	}
	if n, err := s.ReadSamples(dst); n != 0 || err != io.EOF {
		t.Errorf("second read = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestSource_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad frame header")
	s := &source{dec: &mockMP3{err: boom}, rate: 44100}

	if _, err := s.ReadSamples(make([]float32, 8)); !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	samples := make([]int16, 44100*2)
	dst := make([]float32, 4096)

	b.ReportAllocs()
	for range b.N {
		s := &source{dec: newMock(samples, 4608), rate: 44100}
		for {
			if _, err := s.ReadSamples(dst); err != nil {
				break
			}
		}
	}
}
