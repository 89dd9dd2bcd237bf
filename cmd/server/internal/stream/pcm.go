// Package stream converts per-connection raw audio byte streams into discrete
// chunks for transcription. Each websocket connection owns one Segmenter; the
// Segmenter owns the connection's buffer and its single-flight guard.
package stream

import (
	"encoding/binary"
)

// DecodePCM16 converts little-endian 16-bit signed mono PCM bytes into
// float32 samples normalized to [-1, 1]. A trailing odd byte is dropped.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples
}
