// SPDX-License-Identifier: EPL-2.0

// Package manifest reads file lists of "relative_path label" lines.
//
// Blank lines and lines starting with '#' are skipped. The label is the last
// whitespace-separated field, so paths may contain spaces.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ik5/audload/loaderr"
)

// ErrSyntax is returned for a line that is not "path label".
var ErrSyntax = errors.New("manifest syntax error")

// Entry is one audio file and its integer class label.
type Entry struct {
	Path  string
	Label int
}

// Resolve joins a relative Path onto root. Absolute paths are returned as is.
func (e Entry) Resolve(root string) string {
	if root == "" || filepath.IsAbs(e.Path) {
		return e.Path
	}
	return filepath.Join(root, e.Path)
}

// Parse reads every entry from r. Syntax errors carry the line number and
// match both ErrSyntax and loaderr.ErrConfiguration.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		cut := strings.LastIndexAny(text, " \t")
		if cut < 0 {
			return nil, fmt.Errorf("%w: line %d: missing label in %q: %w", loaderr.ErrConfiguration, line, text, ErrSyntax)
		}
		path := strings.TrimSpace(text[:cut])
		label, err := strconv.Atoi(text[cut+1:])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: label %q: %w", loaderr.ErrConfiguration, line, text[cut+1:], ErrSyntax)
		}

		entries = append(entries, Entry{Path: path, Label: label})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}

	return entries, nil
}

// Load parses the manifest at path.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open manifest: %w", loaderr.ErrConfiguration, err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
