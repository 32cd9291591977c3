package proc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureFile(t *testing.T) {
	dir := t.TempDir()

	full := filepath.Join(dir, "full.seg")
	require.NoError(t, os.WriteFile(full, []byte("content"), 0644))
	assert.NoError(t, EnsureFile(full))

	empty := filepath.Join(dir, "empty.seg")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	err := EnsureFile(empty)
	require.Error(t, err)
	var artifact *ArtifactError
	require.ErrorAs(t, err, &artifact)
	assert.Equal(t, "empty", artifact.Reason)

	err = EnsureFile(filepath.Join(dir, "missing.seg"))
	require.Error(t, err)
	require.ErrorAs(t, err, &artifact)
	assert.Equal(t, "not created", artifact.Reason)
}
