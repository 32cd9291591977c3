package cluster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelabelSegmentationRoundTrip(t *testing.T) {
	var out strings.Builder
	err := RelabelSegmentation(strings.NewReader(sampleSeg), &out, map[string]string{"S0": "alice"})
	require.NoError(t, err)

	before, err := ParseSegmentation(strings.NewReader(sampleSeg))
	require.NoError(t, err)
	after, err := ParseSegmentation(strings.NewReader(out.String()))
	require.NoError(t, err)

	renamed := after.Get("alice")
	require.NotNil(t, renamed, "cluster id must be replaced in the header token")
	orig := before.Get("S0")

	// only the identity label changes; segment count, order, durations stay
	require.Len(t, renamed.Segments, len(orig.Segments))
	for i := range orig.Segments {
		assert.Equal(t, orig.Segments[i].Start, renamed.Segments[i].Start)
		assert.Equal(t, orig.Segments[i].Duration, renamed.Segments[i].Duration)
		assert.Equal(t, "alice", renamed.Segments[i].Label)
	}
	assert.Equal(t, orig.FrameCount, renamed.FrameCount)

	// the untouched cluster survives unchanged
	require.NotNil(t, after.Get("S1"))
	assert.Equal(t, before.Get("S1").FrameCount, after.Get("S1").FrameCount)
}

func TestRelabelSegmentationTokenExact(t *testing.T) {
	// S1 is a substring of S10; only whole fields may be replaced
	input := ";; cluster:S1\nshow 1 0 50 M studio U S1\n;; cluster:S10\nshow 1 50 50 M studio U S10\n"
	var out strings.Builder
	err := RelabelSegmentation(strings.NewReader(input), &out, map[string]string{"S1": "bob"})
	require.NoError(t, err)

	st, err := ParseSegmentation(strings.NewReader(out.String()))
	require.NoError(t, err)
	assert.NotNil(t, st.Get("bob"))
	assert.NotNil(t, st.Get("S10"), "S10 must not be corrupted by the S1 mapping")
	assert.Nil(t, st.Get("bob0"))
}

func TestRelabelSegmentationShowFieldUntouched(t *testing.T) {
	// a cluster id that also appears in the show column stays put there
	input := ";; cluster:S0\nS0 1 0 50 M studio U S0\n"
	var out strings.Builder
	err := RelabelSegmentation(strings.NewReader(input), &out, map[string]string{"S0": "carol"})
	require.NoError(t, err)

	st, err := ParseSegmentation(strings.NewReader(out.String()))
	require.NoError(t, err)
	c := st.Get("carol")
	require.NotNil(t, c)
	assert.Equal(t, "S0", c.Segments[0].Show)
	assert.Equal(t, "carol", c.Segments[0].Label)
}
