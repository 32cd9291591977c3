// Package scoring schedules cluster-versus-model matching jobs with bounded
// concurrency and folds the results into each cluster's score map.
package scoring

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/user/voiceid/internal/cluster"
	"github.com/user/voiceid/internal/db"
	"golang.org/x/sync/errgroup"
)

// Scorer matches one cluster against one voice model and returns the match
// score together with the speaker label the scorer's output carries. The
// label, not the model's filename, keys the cluster's score map: several
// stored artifacts of the same speaker (carol.gmm, carol1.gmm) all fold into
// one entry.
type Scorer interface {
	Score(ctx context.Context, c *cluster.Cluster, model db.Model) (string, float64, error)
}

// Coordinator fans every cluster out against every model in its gender
// partition. At most Workers jobs are in flight at once; admission blocks
// until a slot frees up.
type Coordinator struct {
	Scorer  Scorer
	Workers int
}

// Run schedules one job per (cluster, model) pair and waits for all of them.
// A single failing job fails the whole run; there is no partial-result mode.
// A cluster whose partition holds no models keeps an empty score map.
func (co *Coordinator) Run(ctx context.Context, clusters []*cluster.Cluster, snap db.Snapshot) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(co.Workers)

	jobs := 0
	for _, c := range clusters {
		for _, m := range snap[c.Gender] {
			c, m := c, m
			jobs++
			g.Go(func() error {
				speaker, value, err := co.Scorer.Score(ctx, c, m)
				if err != nil {
					return fmt.Errorf("match cluster %s against model %s/%s: %w",
						c.ID, m.Gender, m.Speaker, err)
				}
				c.AddScore(speaker, value)
				log.Debug().
					Str("cluster", c.ID).
					Str("speaker", speaker).
					Str("model", m.Speaker).
					Float64("score", value).
					Msg("Scored matching job")
				return nil
			})
		}
	}

	log.Info().
		Int("clusters", len(clusters)).
		Int("jobs", jobs).
		Int("workers", co.Workers).
		Msg("Dispatching matching jobs")

	return g.Wait()
}
