package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/voiceid/internal/cluster"
	"github.com/user/voiceid/internal/config"
	"github.com/user/voiceid/internal/lium"
)

func TestNormalizeInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my show - part 1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	clean, err := NormalizeInput(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "my_show___part_1.mp4"), clean)

	_, err = os.Stat(clean)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNormalizeInputNoChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clean.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	clean, err := NormalizeInput(path)
	require.NoError(t, err)
	assert.Equal(t, path, clean)
}

// The scorer output names the speaker by the trained label inside the model,
// which differs from the model filename once a collision suffix is in play
// (carol1.gmm still scores as carol). Selection goes by cluster token and the
// label is reported as found.
func TestBestClusterScore(t *testing.T) {
	entries := []lium.ScoreEntry{
		{Cluster: "S0", Speaker: "carol", Value: -22.5},
		{Cluster: "S0", Speaker: "carol", Value: -20.0},
		{Cluster: "S9", Speaker: "dave", Value: -5.0},
	}

	speaker, value, ok := bestClusterScore(entries, "S0")
	require.True(t, ok)
	assert.Equal(t, "carol", speaker)
	assert.Equal(t, -20.0, value)

	_, _, ok = bestClusterScore(entries, "S1")
	assert.False(t, ok)

	_, _, ok = bestClusterScore(nil, "S0")
	assert.False(t, ok)
}

func TestResolveAll(t *testing.T) {
	st, err := cluster.ParseSegmentation(strings.NewReader(
		";; cluster:S0\nshow 1 0 100 M studio U S0\n;; cluster:S1\nshow 1 100 100 F studio U S1\n"))
	require.NoError(t, err)
	st.Get("S0").AddScore("alice", -20.0)
	st.Get("S0").AddScore("bob", -25.0)
	// S1 gets no scores at all

	o := &Orchestrator{cfg: &config.Config{DistanceCutoff: cluster.DefaultDistanceCutoff}}
	mapping := o.resolveAll(st)

	assert.Equal(t, "alice", mapping["S0"])
	assert.Equal(t, cluster.UnknownSpeaker, mapping["S1"])
	assert.Equal(t, "alice", st.Get("S0").Resolved)
	assert.Equal(t, cluster.UnknownSpeaker, st.Get("S1").Resolved)
}
