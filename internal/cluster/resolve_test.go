package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveConfidentBest(t *testing.T) {
	res := Resolve(map[string]float64{"alice": -20.0, "bob": -25.0}, DefaultDistanceCutoff)
	assert.Equal(t, "alice", res.Speaker)
	assert.InDelta(t, 5.0, res.Distance, 1e-9)
}

func TestResolveAmbiguousIsUnknown(t *testing.T) {
	// alice has the best score, but bob is too close to call
	res := Resolve(map[string]float64{"alice": -20.0, "bob": -20.05}, DefaultDistanceCutoff)
	assert.Equal(t, UnknownSpeaker, res.Speaker)
	assert.InDelta(t, 0.05, res.Distance, 1e-9)
}

func TestResolveEmptyIsUnknown(t *testing.T) {
	res := Resolve(nil, DefaultDistanceCutoff)
	assert.Equal(t, UnknownSpeaker, res.Speaker)

	res = Resolve(map[string]float64{}, DefaultDistanceCutoff)
	assert.Equal(t, UnknownSpeaker, res.Speaker)
}

func TestResolveSingleCandidateIsConfident(t *testing.T) {
	res := Resolve(map[string]float64{"alice": -28.0}, DefaultDistanceCutoff)
	assert.Equal(t, "alice", res.Speaker)
	assert.True(t, math.IsInf(res.Distance, 1))
}

func TestResolveIsPure(t *testing.T) {
	scores := map[string]float64{"alice": -21.5, "bob": -24.0, "carol": -22.0}
	first := Resolve(scores, DefaultDistanceCutoff)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Resolve(scores, DefaultDistanceCutoff))
	}
}

func TestResolveDiagnostics(t *testing.T) {
	res := Resolve(map[string]float64{"alice": -20.0, "bob": -30.0}, DefaultDistanceCutoff)
	assert.InDelta(t, -25.0, res.Mean, 1e-9)
	assert.InDelta(t, 5.0, res.MeanDistance, 1e-9)
}

func TestResolveCustomCutoff(t *testing.T) {
	scores := map[string]float64{"alice": -20.0, "bob": -25.0}
	assert.Equal(t, "alice", Resolve(scores, 4.9).Speaker)
	assert.Equal(t, UnknownSpeaker, Resolve(scores, 5.1).Speaker)
}
