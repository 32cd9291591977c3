// Package pipeline sequences the identification stages: transcode, diarize,
// draft subtitles, extract features, materialize clusters, per-cluster merge
// and feature extraction, bounded-concurrent scoring, resolution, subtitle
// relabeling, and the optional review and enrollment phases.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/voiceid/internal/cluster"
	"github.com/user/voiceid/internal/config"
	"github.com/user/voiceid/internal/db"
	"github.com/user/voiceid/internal/lium"
	"github.com/user/voiceid/internal/media"
	"github.com/user/voiceid/internal/proc"
	"github.com/user/voiceid/internal/review"
	"github.com/user/voiceid/internal/scoring"
	"github.com/user/voiceid/internal/srt"
	"github.com/user/voiceid/internal/trainer"
	"golang.org/x/sync/errgroup"
)

// Orchestrator drives one identification run end to end. Any stage failure
// aborts the run immediately; completed stages' artifacts are left on disk.
type Orchestrator struct {
	cfg      *config.Config
	db       *db.DB
	tool     lium.Tool
	media    media.Tools
	trainer  *trainer.Trainer
	reviewer *review.Reviewer
}

func New(cfg *config.Config, database *db.DB) *Orchestrator {
	runner := proc.Runner{Verbose: cfg.Verbose}
	tool := lium.Tool{Jar: cfg.LiumJar, UBM: cfg.UBMPath, Runner: runner}
	tools := media.Tools{Runner: runner}

	o := &Orchestrator{
		cfg:   cfg,
		db:    database,
		tool:  tool,
		media: tools,
		trainer: &trainer.Trainer{
			Tool:             tool,
			Media:            tools,
			DB:               database,
			KeepIntermediate: cfg.KeepIntermediate,
		},
	}
	if cfg.Interactive {
		o.reviewer = review.NewReviewer(os.Stdin, os.Stdout, soxPlayer{tools: tools})
	}
	return o
}

// Trainer exposes the model trainer for the standalone enrollment mode.
func (o *Orchestrator) Trainer() *trainer.Trainer { return o.trainer }

// Identify runs the full pipeline for one recording. On success the labeled
// subtitles are at <base>.ident.srt.
func (o *Orchestrator) Identify(ctx context.Context, input string) error {
	runID := uuid.NewString()
	started := time.Now()
	logger := log.With().Str("run_id", runID).Str("input", input).Logger()

	base := strings.TrimSuffix(input, filepath.Ext(input))

	logger.Info().Msg("Transcoding to canonical waveform")
	wavePath, err := o.media.EnsureCanonical(ctx, input)
	if err != nil {
		return fmt.Errorf("transcode: %w", err)
	}

	logger.Info().Msg("Diarizing")
	if err := o.tool.Diarize(ctx, base); err != nil {
		return fmt.Errorf("diarize: %w", err)
	}
	diarizationTime := time.Since(started)

	logger.Info().Msg("Materializing clusters")
	store, err := cluster.LoadSegmentation(base + ".seg")
	if err != nil {
		return err
	}

	logger.Info().Int("clusters", store.Len()).Msg("Drafting subtitles")
	if err := srtDraft(base, store); err != nil {
		return err
	}

	logger.Info().Msg("Extracting features")
	if err := o.tool.ExtractFeatures(ctx, base); err != nil {
		return fmt.Errorf("extract features: %w", err)
	}

	logger.Info().Msg("Splitting and merging per-cluster waveforms")
	clusterWaves, err := o.materializeClusterWaves(ctx, base, wavePath, store)
	if err != nil {
		return err
	}

	snapshot, err := o.db.Snapshot()
	if err != nil {
		return err
	}

	coordinator := scoring.Coordinator{
		Scorer:  &mscoreScorer{tool: o.tool, keep: o.cfg.KeepIntermediate},
		Workers: o.cfg.Workers,
	}
	if err := coordinator.Run(ctx, store.All(), snapshot); err != nil {
		return err
	}

	logger.Info().Msg("Resolving identities")
	mapping := o.resolveAll(store)

	logger.Info().Msg("Relabeling subtitles")
	if err := srt.RelabelFile(base+".srt", base+".ident.srt", mapping); err != nil {
		return err
	}
	if err := proc.EnsureFile(base + ".ident.srt"); err != nil {
		return err
	}

	if o.cfg.Interactive {
		if err := o.reviewAndEnroll(ctx, base, store, clusterWaves); err != nil {
			return err
		}
	}

	o.logSummary(logger, wavePath, snapshot, started, diarizationTime)
	return nil
}

// materializeClusterWaves trims every segment out of the show waveform into
// <base>/<cluster>/, merges each cluster's segments into one waveform, and
// extracts per-cluster features and segmentation for scoring. It returns the
// per-cluster segment wave lists for review playback and enrollment.
func (o *Orchestrator) materializeClusterWaves(ctx context.Context, base, wavePath string, store *cluster.Store) (map[string][]string, error) {
	waves := make(map[string][]string, store.Len())
	for _, c := range store.All() {
		dir := filepath.Join(base, c.ID)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cluster directory: %w", err)
		}
		for _, s := range c.Segments {
			start := time.Duration(s.Start) * 10 * time.Millisecond
			dur := time.Duration(s.Duration) * 10 * time.Millisecond
			out := filepath.Join(dir, fmt.Sprintf("%s_%d.wav", c.ID, s.Start))
			if err := o.media.Trim(ctx, wavePath, out, start, dur); err != nil {
				return nil, fmt.Errorf("trim segment: %w", err)
			}
			waves[c.ID] = append(waves[c.ID], out)
		}

		clusterBase := filepath.Join(base, c.ID)
		if err := o.media.Merge(ctx, waves[c.ID], clusterBase+".wav"); err != nil {
			return nil, fmt.Errorf("merge cluster %s: %w", c.ID, err)
		}
		if err := o.tool.ExtractFeatures(ctx, clusterBase); err != nil {
			return nil, fmt.Errorf("extract cluster %s features: %w", c.ID, err)
		}
		if err := writeClusterSeg(c, clusterBase+".seg"); err != nil {
			return nil, err
		}
		c.WavePath = clusterBase + ".wav"
		c.FeaturesPath = clusterBase + ".mfcc"
	}
	return waves, nil
}

// resolveAll applies the identity decision to every cluster and returns the
// cluster-to-identity mapping for subtitle relabeling.
func (o *Orchestrator) resolveAll(store *cluster.Store) map[string]string {
	mapping := make(map[string]string, store.Len())
	for _, c := range store.All() {
		scores := c.Scores()
		res := cluster.Resolve(scores, o.cfg.DistanceCutoff)
		c.Resolved = res.Speaker
		mapping[c.ID] = res.Speaker

		for speaker, value := range scores {
			log.Debug().
				Str("cluster", c.ID).
				Str("candidate", speaker).
				Float64("score", value).
				Msg("Candidate score")
		}
		log.Info().
			Str("cluster", c.ID).
			Str("speaker", res.Speaker).
			Float64("distance", res.Distance).
			Float64("mean", res.Mean).
			Float64("mean_distance", res.MeanDistance).
			Msg("Resolved cluster")
	}
	return mapping
}

// reviewAndEnroll walks the unresolved clusters past the operator one at a
// time and trains a model for every confirmed identity. Review is
// synchronous; enrollment tasks run concurrently and are all joined before
// the run completes.
func (o *Orchestrator) reviewAndEnroll(ctx context.Context, base string, store *cluster.Store, clusterWaves map[string][]string) error {
	var g errgroup.Group
	for _, c := range store.All() {
		if c.Resolved != cluster.UnknownSpeaker {
			continue
		}
		name, err := o.reviewer.Review(ctx, c.ID, clusterWaves[c.ID])
		if err != nil {
			return fmt.Errorf("review cluster %s: %w", c.ID, err)
		}
		if name == cluster.UnknownSpeaker {
			continue
		}

		// Snapshot the task's inputs; the loop moves on while it runs.
		c, name, waves := c, name, clusterWaves[c.ID]
		g.Go(func() error {
			return o.trainer.EnrollCluster(ctx, c, name, waves, filepath.Dir(base))
		})
	}
	log.Info().Msg("Waiting for enrollment tasks")
	return g.Wait()
}

func (o *Orchestrator) logSummary(logger zerolog.Logger, wavePath string, snapshot db.Snapshot, started time.Time, diarizationTime time.Duration) {
	total := time.Since(started)
	voices := 0
	for _, models := range snapshot {
		voices += len(models)
	}
	event := logger.Info().
		Dur("total", total).
		Dur("diarization", diarizationTime).
		Int("voices_in_db", voices)
	if dur, err := media.WaveDuration(wavePath); err == nil {
		event = event.Dur("wave_duration", dur)
	}
	event.Msg("Run complete")
}

func srtDraft(base string, store *cluster.Store) error {
	if err := srt.WriteFile(base+".srt", store.Segments()); err != nil {
		return err
	}
	return proc.EnsureFile(base + ".srt")
}

func writeClusterSeg(c *cluster.Cluster, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cluster segmentation: %w", err)
	}
	defer f.Close()
	if err := c.WriteSeg(f); err != nil {
		return fmt.Errorf("write cluster segmentation: %w", err)
	}
	return nil
}

// NormalizeInput renames the input file so its name contains no spaces,
// quotes, or dashes, which the external tools' mask arguments cannot carry.
// Directory components are left alone.
func NormalizeInput(path string) (string, error) {
	name := strings.NewReplacer("'", "_", "-", "_", " ", "_").Replace(filepath.Base(path))
	clean := filepath.Join(filepath.Dir(path), name)
	if clean == path {
		return path, nil
	}
	if err := os.Rename(path, clean); err != nil {
		return "", fmt.Errorf("normalize input name: %w", err)
	}
	return clean, nil
}
