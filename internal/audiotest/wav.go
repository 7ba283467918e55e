// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WAV16 returns a canonical 44-byte-header PCM 16-bit WAV image holding the
// interleaved samples.
func WAV16(rate, channels int, samples []int16) []byte {
	buf := new(bytes.Buffer)
	dataSize := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(rate*channels*2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels*2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	_ = binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// WriteWAV16 writes a WAV fixture named name under dir and returns its path.
func WriteWAV16(t testing.TB, dir, name string, rate, channels int, samples []int16) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, WAV16(rate, channels, samples), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Burst returns total mono samples that are zero except for [from, to),
// which holds amp.
func Burst(total, from, to int, amp int16) []int16 {
	s := make([]int16, total)
	for i := from; i < to && i < total; i++ {
		s[i] = amp
	}
	return s
}
