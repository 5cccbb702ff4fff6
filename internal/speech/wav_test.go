package speech

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func floatPCMBytes(samples ...float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(s))
	}
	return buf
}

func TestConvertToWAVHeaderFields(t *testing.T) {
	pcm := floatPCMBytes(0, 0.5, -0.5, 1, -1)
	wav, err := convertToWAV(pcm)
	require.NoError(t, err)

	require.Equal(t, "RIFF", string(wav[0:4]))
	require.Equal(t, "WAVE", string(wav[8:12]))
	require.Equal(t, "fmt ", string(wav[12:16]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22])) // PCM
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24])) // mono
	require.Equal(t, uint32(44100), binary.LittleEndian.Uint32(wav[24:28]))
	require.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	require.Equal(t, "data", string(wav[36:40]))

	dataSize := binary.LittleEndian.Uint32(wav[40:44])
	require.EqualValues(t, len(pcm)/4*2, dataSize)
	require.Len(t, wav, 44+int(dataSize))
}

func TestConvertToWAVClampsOutOfRangeSamples(t *testing.T) {
	pcm := floatPCMBytes(2.0, -2.0)
	wav, err := convertToWAV(pcm)
	require.NoError(t, err)

	payload := wav[44:]
	first := int16(binary.LittleEndian.Uint16(payload[0:2]))
	second := int16(binary.LittleEndian.Uint16(payload[2:4]))
	require.Equal(t, int16(32767), first)
	require.Equal(t, int16(-32767), second)
}

func TestConvertToWAVRejectsMisalignedBuffer(t *testing.T) {
	_, err := convertToWAV([]byte{0, 1, 2})
	require.Error(t, err)

	var speechErr *Error
	require.ErrorAs(t, err, &speechErr)
	require.Equal(t, AudioConversion, speechErr.Kind)
}
