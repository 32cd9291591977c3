package cluster

import (
	"math"
	"sort"
)

// UnknownSpeaker is the sentinel identity for clusters that match no model
// confidently enough.
const UnknownSpeaker = "unknown"

const (
	// DefaultDistanceCutoff is the minimum gap between the best and
	// second-best candidate for a match to count as confident.
	DefaultDistanceCutoff = 0.1

	// ScoreFloor is carried over from the original decision routine. It is
	// computed alongside the diagnostics but never gates the outcome; kept
	// pending clarification of its intended role.
	ScoreFloor = -33.0
)

// Resolution is the outcome of the identity decision for one cluster.
// Mean and MeanDistance are diagnostic only.
type Resolution struct {
	Speaker      string
	Distance     float64
	Mean         float64
	MeanDistance float64
}

// Resolve converts a cluster's accumulated per-speaker scores into an
// identity. It is a pure function: identical maps yield identical results.
//
// The best candidate wins unless the second-best is closer than cutoff, in
// which case the match is ambiguous and the cluster stays unknown. An empty
// map is unknown by definition; a single candidate is treated as maximally
// confident (distance +Inf).
func Resolve(scores map[string]float64, cutoff float64) Resolution {
	if len(scores) == 0 {
		return Resolution{Speaker: UnknownSpeaker}
	}

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	// Sort by descending score, ties by name, so the decision does not
	// depend on map iteration order.
	sort.Slice(names, func(i, j int) bool {
		a, b := scores[names[i]], scores[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})

	best := names[0]
	bestValue := scores[best]

	var sum float64
	for _, v := range scores {
		sum += v
	}
	mean := sum / float64(len(scores))

	res := Resolution{
		Speaker:      best,
		Distance:     math.Inf(1),
		Mean:         mean,
		MeanDistance: math.Abs(math.Abs(bestValue) - math.Abs(mean)),
	}
	if len(names) > 1 {
		res.Distance = math.Abs(scores[names[1]]) - math.Abs(bestValue)
	}
	if res.Distance < cutoff {
		res.Speaker = UnknownSpeaker
	}
	return res
}
