// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/ik5/audload/internal/audiotest"
)

type stubDecoder struct {
	name string
}

func (d *stubDecoder) Decode(io.Reader) (Source, error) {
	return audiotest.Silent(44100, 2, 100), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	d := &stubDecoder{name: "wav"}
	r.Register("wav", d)

	got, ok := r.Get("wav")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got != d {
		t.Error("Get() returned a different decoder")
	}
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	d := &stubDecoder{}
	r.Register("WAV", d)

	if got, ok := r.Get("wav"); !ok || got != d {
		t.Errorf("Get(wav) = %v, %v; want registered decoder", got, ok)
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	first, second := &stubDecoder{name: "a"}, &stubDecoder{name: "b"}
	r.Register("mp3", first)
	r.Register("mp3", second)

	got, _ := r.Get("mp3")
	if got != second {
		t.Error("Register() did not replace the existing decoder")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	wav, ogg := &stubDecoder{name: "wav"}, &stubDecoder{name: "ogg"}
	r.Register("wav", wav)
	r.Register("ogg", ogg)

	tests := []struct {
		path    string
		want    Decoder
		wantErr bool
	}{
		{"speech/a.wav", wav, false},
		{"B.WAV", wav, false},
		{"music/c.ogg", ogg, false},
		{"d.flac", nil, true},
		{"noext", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, err := r.Lookup(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("Lookup() error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Lookup() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, f := range []string{"ogg", "wav", "aiff", "mp3"} {
		r.Register(f, &stubDecoder{name: f})
	}

	want := []string{"aiff", "mp3", "ogg", "wav"}
	if got := r.Formats(); !slices.Equal(got, want) {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(fmt.Sprintf("f%d", i), &stubDecoder{})
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Get(fmt.Sprintf("f%d", i))
			_ = r.Formats()
		}()
	}
	wg.Wait()

	if got := len(r.Formats()); got != 50 {
		t.Errorf("len(Formats()) = %d, want 50", got)
	}
}

func BenchmarkRegistry_Lookup(b *testing.B) {
	r := NewRegistry()
	r.Register("wav", &stubDecoder{})

	b.ReportAllocs()
	for range b.N {
		_, _ = r.Lookup("data/speech/sample.wav")
	}
}
