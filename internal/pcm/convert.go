// SPDX-License-Identifier: EPL-2.0

// Package pcm holds small sample-level helpers shared by the decoders,
// the resampler and the pipeline arena.
package pcm

// ToInt16 clamps x to [-1, 1] and scales it to a signed 16-bit sample.
// 32767 is used for the positive side so +1 does not overflow.
func ToInt16(x float32) int16 {
	switch {
	case x > 1:
		x = 1
	case x < -1:
		x = -1
	}
	return int16(x * 32767.0)
}

// Scale returns the divisor that maps an integer sample of the given
// bit depth into [-1, 1). Unknown depths fall back to 16 bits.
func Scale(bitDepth int) float32 {
	switch bitDepth {
	case 8, 16, 24, 32:
		return float32(int64(1) << uint(bitDepth-1))
	default:
		return 32768.0
	}
}

// IntsToFloat32 converts src into dst using the scale for bitDepth and
// returns the number of samples written.
func IntsToFloat32(dst []float32, src []int, bitDepth int) int {
	n := min(len(dst), len(src))
	inv := 1 / Scale(bitDepth)
	for i := range n {
		dst[i] = float32(src[i]) * inv
	}
	return n
}

// LE16ToFloat32 decodes little-endian signed 16-bit PCM bytes into dst.
// It returns the number of samples written; a trailing odd byte is ignored.
func LE16ToFloat32(dst []float32, src []byte) int {
	n := min(len(dst), len(src)/2)
	for i := range n {
		v := int16(uint16(src[2*i]) | uint16(src[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}
	return n
}
