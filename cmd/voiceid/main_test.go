package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWaveArgs(t *testing.T) {
	require.NoError(t, validateWaveArgs([]string{"a.wav", "b.wav", "merged.wav"}))

	err := validateWaveArgs([]string{"a.wav", "-d", "/db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-d")
}
