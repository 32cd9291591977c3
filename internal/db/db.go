// Package db manages the persistent voice-model database: a root directory
// with one subdirectory per gender partition, each holding named model
// artifacts. Models are immutable once written.
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/user/voiceid/internal/cluster"
)

// ModelExt is the filename extension of persisted model artifacts.
const ModelExt = ".gmm"

var partitions = []cluster.Gender{cluster.Male, cluster.Female, cluster.GenderUnknown}

// Model is one trained voice model in the database.
type Model struct {
	Speaker string // speaker name encoded in the filename
	Gender  cluster.Gender
	Path    string
}

// Snapshot is the model set visible at the start of a scoring pass. Models
// added afterwards are not part of it.
type Snapshot map[cluster.Gender][]Model

// DB is a handle on the database root directory. Name reservation assumes a
// single orchestrator process writes to the database at a time; reserved
// names are additionally tracked in-process so concurrent enrollment tasks
// in one run cannot claim the same slot.
type DB struct {
	Root string

	mu       sync.Mutex
	reserved map[string]bool
}

// Open prepares the database at root, creating missing gender partitions.
// A missing root is an error; an empty database only warrants a warning.
func Open(root string) (*DB, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("model database root %s not found", root)
	}
	d := &DB{Root: root, reserved: make(map[string]bool)}
	for _, g := range partitions {
		if err := os.MkdirAll(d.partitionDir(g), 0755); err != nil {
			return nil, fmt.Errorf("create partition %s: %w", g, err)
		}
	}
	if models, err := d.Snapshot(); err == nil && countModels(models) == 0 {
		log.Warn().Str("root", root).Msg("Model database is empty")
	}
	return d, nil
}

func (d *DB) partitionDir(g cluster.Gender) string {
	return filepath.Join(d.Root, string(g))
}

// Snapshot lists every model currently in the database, by partition.
func (d *DB) Snapshot() (Snapshot, error) {
	snap := make(Snapshot, len(partitions))
	for _, g := range partitions {
		entries, err := os.ReadDir(d.partitionDir(g))
		if err != nil {
			return nil, fmt.Errorf("list partition %s: %w", g, err)
		}
		var models []Model
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ModelExt) {
				continue
			}
			models = append(models, Model{
				Speaker: strings.TrimSuffix(e.Name(), ModelExt),
				Gender:  g,
				Path:    filepath.Join(d.partitionDir(g), e.Name()),
			})
		}
		sort.Slice(models, func(i, j int) bool { return models[i].Speaker < models[j].Speaker })
		snap[g] = models
	}
	return snap, nil
}

// ReserveName picks a free model name in the given partition for speaker.
// If the name is taken it probes speaker1, speaker2, ... until a free slot
// is found, so an existing model is never overwritten.
func (d *DB) ReserveName(g cluster.Gender, speaker string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	name := speaker
	for n := 1; d.exists(g, name) || d.reserved[string(g)+"/"+name]; n++ {
		name = fmt.Sprintf("%s%d", speaker, n)
	}
	d.reserved[string(g)+"/"+name] = true
	return name
}

func (d *DB) exists(g cluster.Gender, name string) bool {
	_, err := os.Stat(filepath.Join(d.partitionDir(g), name+ModelExt))
	return err == nil
}

// Install moves a trained model artifact into the partition slot for name.
// The slot must have been reserved via ReserveName.
func (d *DB) Install(srcPath string, g cluster.Gender, name string) (string, error) {
	dst := filepath.Join(d.partitionDir(g), name+ModelExt)
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("model %s already exists in partition %s", name, g)
	}
	if err := os.Rename(srcPath, dst); err != nil {
		// Rename fails across filesystems; fall back to copy.
		data, rerr := os.ReadFile(srcPath)
		if rerr != nil {
			return "", fmt.Errorf("install model %s: %w", name, err)
		}
		if werr := os.WriteFile(dst, data, 0644); werr != nil {
			return "", fmt.Errorf("install model %s: %w", name, werr)
		}
		os.Remove(srcPath)
	}
	log.Info().
		Str("speaker", name).
		Str("partition", string(g)).
		Str("path", dst).
		Msg("Stored voice model")
	return dst, nil
}

func countModels(s Snapshot) int {
	n := 0
	for _, models := range s {
		n += len(models)
	}
	return n
}
