// SPDX-License-Identifier: EPL-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ik5/audload/loaderr"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []Entry
	}{
		{
			name:  "simple",
			input: "a.wav 0\nb.wav 1\n",
			want:  []Entry{{"a.wav", 0}, {"b.wav", 1}},
		},
		{
			name:  "comments and blanks",
			input: "# speakers\n\na.wav 3\n   \n# tail\n",
			want:  []Entry{{"a.wav", 3}},
		},
		{
			name:  "tabs and spaces in path",
			input: "dir/my file.wav\t7\r\nother.ogg  -1",
			want:  []Entry{{"dir/my file.wav", 7}, {"other.ogg", -1}},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"no label", "a.wav 0\nlonely.wav\n", "line 2"},
		{"bad label", "a.wav zero\n", "line 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, ErrSyntax) || !errors.Is(err, loaderr.ErrConfiguration) {
				t.Fatalf("Parse() error = %v, want ErrSyntax and ErrConfiguration", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("error %q does not mention %s", err, tt.line)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(path, []byte("x.wav 1\ny.wav 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[1] != (Entry{"y.wav", 2}) {
		t.Errorf("Load() = %v", got)
	}

	if _, err := Load(filepath.Join(dir, "missing.txt")); !errors.Is(err, loaderr.ErrConfiguration) {
		t.Errorf("Load(missing) error = %v, want ErrConfiguration", err)
	}
}

func TestEntry_Resolve(t *testing.T) {
	t.Parallel()

	abs := filepath.Join(string(filepath.Separator), "data", "a.wav")

	tests := []struct {
		entry Entry
		root  string
		want  string
	}{
		{Entry{Path: "a.wav"}, "", "a.wav"},
		{Entry{Path: "sub/a.wav"}, "/data", filepath.Join("/data", "sub", "a.wav")},
		{Entry{Path: abs}, "/elsewhere", abs},
	}

	for _, tt := range tests {
		if got := tt.entry.Resolve(tt.root); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.root, got, tt.want)
		}
	}
}
