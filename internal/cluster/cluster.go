// Package cluster holds the entities produced by diarization: speaker
// clusters, their segments, and the identity decision made over match scores.
package cluster

import (
	"fmt"
	"io"
	"sync"
)

// Gender is the partition key of the voice-model database.
type Gender string

const (
	Male          Gender = "M"
	Female        Gender = "F"
	GenderUnknown Gender = "U"
)

// ParseGender maps a segmentation-artifact gender token onto the enum.
// Anything unrecognized is treated as unknown.
func ParseGender(s string) Gender {
	switch s {
	case "M", "F", "U":
		return Gender(s)
	default:
		return GenderUnknown
	}
}

// Segment is one diarized speech span, in artifact file order.
// Start and Duration are centisecond counts.
type Segment struct {
	Show        string
	Channel     string
	Start       int
	Duration    int
	Gender      string
	Environment string
	Flag        string
	Label       string
}

// Cluster groups the segments the diarizer attributed to one (still
// unidentified) speaker within a single recording.
type Cluster struct {
	ID          string
	Gender      Gender
	Environment string
	Segments    []Segment
	FrameCount  int

	// Resolved is set after scoring (or interactive review) completes.
	// It is either a known speaker name or UnknownSpeaker.
	Resolved string

	// WavePath and FeaturesPath reference the merged per-cluster waveform
	// and its extracted features, created lazily before scoring.
	WavePath     string
	FeaturesPath string

	header string

	mu     sync.Mutex
	scores map[string]float64
}

func newCluster(id, header string) *Cluster {
	return &Cluster{
		ID:     id,
		Gender: GenderUnknown,
		header: header,
		scores: make(map[string]float64),
	}
}

// AddScore folds one matching result into the score map. A speaker's entry
// only ever increases: a lower score for an already-seen speaker is ignored.
func (c *Cluster) AddScore(speaker string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.scores[speaker]; !ok || value > prev {
		c.scores[speaker] = value
	}
}

// Scores returns a copy of the accumulated per-speaker scores.
func (c *Cluster) Scores() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]float64, len(c.scores))
	for k, v := range c.scores {
		out[k] = v
	}
	return out
}

// WriteSeg writes a segmentation file for this cluster alone. Start offsets
// are recomputed from zero because the cluster's merged waveform is a plain
// concatenation of its segments.
func (c *Cluster) WriteSeg(w io.Writer) error {
	if c.header != "" {
		if _, err := io.WriteString(w, c.header+"\n"); err != nil {
			return err
		}
	}
	start := 0
	for _, s := range c.Segments {
		_, err := fmt.Fprintf(w, "%s %s %d %d %s %s %s %s\n",
			s.Show, s.Channel, start, s.Duration, s.Gender, s.Environment, s.Flag, s.Label)
		if err != nil {
			return err
		}
		start += s.Duration
	}
	return nil
}
