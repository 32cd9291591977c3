package media

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWave writes a minimal RIFF file with the given format parameters and
// seconds of silence.
func writeWave(t *testing.T, channels, rate, bits, seconds int) string {
	t.Helper()
	byteRate := rate * channels * bits / 8
	dataSize := byteRate * seconds

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(channels*bits/8))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bits))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	path := filepath.Join(t.TempDir(), "test.wav")
	require.NoError(t, os.WriteFile(path, append(header, make([]byte, dataSize)...), 0644))
	return path
}

func TestWaveDuration(t *testing.T) {
	path := writeWave(t, 1, 16000, 16, 3)
	dur, err := WaveDuration(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, dur)
}

func TestWaveDurationNotRIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0644))
	_, err := WaveDuration(path)
	require.Error(t, err)
}

func TestIsCanonicalWave(t *testing.T) {
	ok, err := isCanonicalWave(writeWave(t, 1, 16000, 16, 1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = isCanonicalWave(writeWave(t, 2, 16000, 16, 1))
	require.NoError(t, err)
	assert.False(t, ok, "stereo is not canonical")

	ok, err = isCanonicalWave(writeWave(t, 1, 44100, 16, 1))
	require.NoError(t, err)
	assert.False(t, ok, "44.1kHz is not canonical")
}
