// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audload/internal/pcm"
)

// ReadAll drains src into dst, growing it as needed, and returns the filled
// slice. The backing array of dst is reused when it is large enough, so a
// caller that keeps the result between calls stops allocating once the
// longest stream has been seen. src is not closed.
func ReadAll(src Source, dst []float32) ([]float32, error) {
	ch := max(src.Channels(), 1)
	chunk := max(src.BufSize(), 1024)
	chunk -= chunk % ch

	n := 0
	for {
		dst = pcm.Grow(dst, n+chunk)
		got, err := src.ReadSamples(dst[n : n+chunk])
		n += got

		if errors.Is(err, io.EOF) {
			return dst[:n], nil
		}
		if err != nil {
			return dst[:n], fmt.Errorf("read samples: %w", err)
		}
		if got == 0 && chunk == 0 {
			return dst[:n], nil
		}
	}
}
