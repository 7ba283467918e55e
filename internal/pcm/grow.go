// SPDX-License-Identifier: EPL-2.0

package pcm

// Grow returns buf resliced to n elements. The backing array is reused when
// its capacity allows; otherwise a new one with headroom is allocated and the
// old contents are copied over.
func Grow(buf []float32, n int) []float32 {
	if n <= cap(buf) {
		return buf[:n]
	}

	newCap := max(n, 2*cap(buf), 1024)
	out := make([]float32, n, newCap)
	copy(out, buf)
	return out
}
