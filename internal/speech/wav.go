package speech

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	wavSampleRate = 44100
	wavChannels   = 1
	wavBitDepth   = 16
)

// convertToWAV converts raw little-endian float32 PCM (the Recorder's
// on-disk capture format) to a canonical 16-bit PCM RIFF/WAVE container, per
// spec.md §4.7: clamp each sample to [-1, 1] and multiply by 32767.
func convertToWAV(floatPCM []byte) ([]byte, error) {
	n := len(floatPCM) / 4
	if n*4 != len(floatPCM) {
		return nil, &Error{Kind: AudioConversion, Err: errNotFloat32Aligned}
	}

	pcm16 := make([]byte, n*2)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(floatPCM[i*4 : i*4+4])
		sample := math.Float32frombits(bits)
		sample = clampSample(sample)
		value := int16(sample * 32767)
		binary.LittleEndian.PutUint16(pcm16[i*2:i*2+2], uint16(value))
	}

	return writePCM16WAV(pcm16, wavSampleRate, wavChannels)
}

func clampSample(sample float32) float32 {
	if sample < -1 {
		return -1
	}
	if sample > 1 {
		return 1
	}
	return sample
}

// writePCM16WAV wraps raw little-endian 16-bit PCM in a minimal RIFF/WAVE
// header, adapted from the recording-pipeline's debug WAV writer.
func writePCM16WAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	const bitsPerSample = wavBitDepth
	byteRate := sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	chunkSize := uint32(36 + len(pcm))
	subChunk2Size := uint32(len(pcm))

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	header := make([]byte, 44)
	copy(header[0:4], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:8], chunkSize)
	copy(header[8:12], []byte("WAVE"))
	copy(header[12:16], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:44], subChunk2Size)

	buf.Write(header)
	buf.Write(pcm)
	return buf.Bytes(), nil
}
