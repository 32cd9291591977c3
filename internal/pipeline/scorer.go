package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/voiceid/internal/cluster"
	"github.com/user/voiceid/internal/db"
	"github.com/user/voiceid/internal/lium"
)

// mscoreScorer matches a cluster's features against one model through the
// external scorer and extracts the cluster's score from its output.
type mscoreScorer struct {
	tool lium.Tool
	keep bool
}

func (s *mscoreScorer) Score(ctx context.Context, c *cluster.Cluster, model db.Model) (string, float64, error) {
	base := strings.TrimSuffix(c.WavePath, ".wav")
	tag := fmt.Sprintf("ident.%s.%s", model.Gender, filepath.Base(model.Path))

	outPath, err := s.tool.Score(ctx, base, model.Path, tag)
	if err != nil {
		return "", 0, err
	}

	entries, err := lium.LoadScores(outPath)
	if err != nil {
		return "", 0, err
	}
	if !s.keep {
		os.Remove(outPath)
	}

	// The speaker label comes from the scorer's output, not from the model
	// filename: a model stored under a collision suffix (carol1.gmm) still
	// carries its trained label (carol) inside, and that label is what the
	// score map must fold on.
	speaker, value, ok := bestClusterScore(entries, c.ID)
	if !ok {
		return "", 0, fmt.Errorf("scorer output %s carries no score for cluster %s", outPath, c.ID)
	}
	return speaker, value, nil
}

// bestClusterScore picks the highest-valued entry for the given cluster.
func bestClusterScore(entries []lium.ScoreEntry, clusterID string) (string, float64, bool) {
	var (
		speaker string
		best    float64
		found   bool
	)
	for _, e := range entries {
		if e.Cluster != clusterID {
			continue
		}
		if !found || e.Value > best {
			speaker = e.Speaker
			best = e.Value
			found = true
		}
	}
	return speaker, best, found
}
