package recorder

import (
	"encoding/binary"
	"math"
)

// level computes the normalized RMS level for one buffer of little-endian
// float32 samples, per spec.md §4.4: L = clamp((20·log10(rms) + 80) / 80, 0, 1).
func level(buffer []byte) float64 {
	n := len(buffer) / 4
	if n == 0 {
		return 0
	}

	var sumSquares float64
	for i := 0; i < n; i++ {
		bits32 := binary.LittleEndian.Uint32(buffer[i*4 : i*4+4])
		sample := math.Float32frombits(bits32)
		sumSquares += float64(sample) * float64(sample)
	}

	rms := math.Sqrt(sumSquares / float64(n))
	if rms <= 0 {
		return 0
	}

	normalized := (20*math.Log10(rms) + 80) / 80
	return clamp(normalized, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
