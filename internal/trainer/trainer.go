// Package trainer builds new voice models for confirmed speakers and
// persists them into the model database.
package trainer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/user/voiceid/internal/cluster"
	"github.com/user/voiceid/internal/db"
	"github.com/user/voiceid/internal/lium"
	"github.com/user/voiceid/internal/media"
)

// Trainer runs the model-initialization and adaptation steps against the
// external toolkit and installs the result under a collision-free name.
type Trainer struct {
	Tool             lium.Tool
	Media            media.Tools
	DB               *db.DB
	KeepIntermediate bool
}

// EnrollCluster trains a model for a cluster whose identity was confirmed as
// speaker, from the per-segment waves belonging to that cluster. workDir
// receives the intermediate artifacts; they are removed on success unless
// KeepIntermediate is set. Cleanup is skipped entirely on failure so the
// artifacts stay available for postmortem.
func (t *Trainer) EnrollCluster(ctx context.Context, c *cluster.Cluster, speaker string, waves []string, workDir string) error {
	if speaker == cluster.UnknownSpeaker {
		return fmt.Errorf("cannot enroll the unknown speaker")
	}

	name := t.DB.ReserveName(c.Gender, speaker)
	base := filepath.Join(workDir, name)

	log.Info().
		Str("cluster", c.ID).
		Str("speaker", speaker).
		Str("model", name).
		Str("partition", string(c.Gender)).
		Msg("Training voice model from cluster")

	if err := t.Media.Merge(ctx, waves, base+".wav"); err != nil {
		return fmt.Errorf("merge cluster waves: %w", err)
	}
	if err := t.Tool.ExtractFeatures(ctx, base); err != nil {
		return fmt.Errorf("extract features: %w", err)
	}
	if err := writeClusterSeg(c, base+".seg"); err != nil {
		return err
	}
	if err := relabelFile(base+".seg", base+".ident.seg", map[string]string{c.ID: speaker}); err != nil {
		return err
	}
	if err := t.train(ctx, base); err != nil {
		return err
	}
	if _, err := t.DB.Install(base+".gmm", c.Gender, name); err != nil {
		return err
	}

	t.cleanup(base)
	return nil
}

// EnrollWaves trains a model for speaker from standalone waveform files.
// With multiple waves, all but the last are concatenated into the last,
// which becomes the training input. The model's gender partition is taken
// from the diarization of the training wave.
func (t *Trainer) EnrollWaves(ctx context.Context, waves []string, speaker string) error {
	input := waves[0]
	if len(waves) > 1 {
		if err := t.Media.Merge(ctx, waves[:len(waves)-1], waves[len(waves)-1]); err != nil {
			return fmt.Errorf("merge training waves: %w", err)
		}
		input = waves[len(waves)-1]
	}

	base := strings.TrimSuffix(input, filepath.Ext(input))
	transcoded := !strings.EqualFold(filepath.Ext(input), ".wav")
	if transcoded {
		if err := t.Media.ToWave(ctx, input, base+".wav"); err != nil {
			return fmt.Errorf("transcode training wave: %w", err)
		}
	}

	if err := t.Tool.Diarize(ctx, base); err != nil {
		return fmt.Errorf("diarize training wave: %w", err)
	}
	store, err := cluster.LoadSegmentation(base + ".seg")
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		return fmt.Errorf("no speech found in %s", input)
	}

	mapping := make(map[string]string, store.Len())
	for _, c := range store.All() {
		mapping[c.ID] = speaker
	}
	if err := relabelFile(base+".seg", base+".ident.seg", mapping); err != nil {
		return err
	}
	if err := t.Tool.ExtractFeatures(ctx, base); err != nil {
		return fmt.Errorf("extract features: %w", err)
	}
	if err := t.train(ctx, base); err != nil {
		return err
	}

	gender := trainingGender(store.All())
	name := t.DB.ReserveName(gender, speaker)
	if _, err := t.DB.Install(base+".gmm", gender, name); err != nil {
		return err
	}

	// The input wave itself is not ours to remove.
	exts := []string{".seg", ".mfcc", ".ident.seg", ".init.gmm"}
	if transcoded {
		exts = append(exts, ".wav")
	}
	t.cleanupExts(base, exts)
	return nil
}

func (t *Trainer) train(ctx context.Context, base string) error {
	if err := t.Tool.TrainInit(ctx, base); err != nil {
		return fmt.Errorf("initialize model: %w", err)
	}
	if err := t.Tool.TrainMAP(ctx, base); err != nil {
		return fmt.Errorf("adapt model: %w", err)
	}
	return nil
}

// cleanup removes training intermediates. Best effort: a leftover file never
// fails an otherwise successful enrollment.
func (t *Trainer) cleanup(base string) {
	t.cleanupExts(base, []string{".wav", ".seg", ".mfcc", ".ident.seg", ".init.gmm"})
}

func (t *Trainer) cleanupExts(base string, exts []string) {
	if t.KeepIntermediate {
		return
	}
	for _, ext := range exts {
		if err := os.Remove(base + ext); err != nil && !os.IsNotExist(err) {
			log.Debug().Err(err).Str("file", base+ext).Msg("Could not remove intermediate file")
		}
	}
}

// trainingGender picks the partition for an enrollment wave: the gender all
// clusters agree on, or unknown when they disagree.
func trainingGender(clusters []*cluster.Cluster) cluster.Gender {
	g := clusters[0].Gender
	for _, c := range clusters[1:] {
		if c.Gender != g {
			return cluster.GenderUnknown
		}
	}
	return g
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

func relabelFile(srcPath, dstPath string, mapping map[string]string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open segmentation: %w", err)
	}
	defer src.Close()
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create relabeled segmentation: %w", err)
	}
	defer dst.Close()
	if err := cluster.RelabelSegmentation(src, dst, mapping); err != nil {
		return fmt.Errorf("relabel segmentation: %w", err)
	}
	return nil
}
