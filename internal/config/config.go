package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DependencyError reports a required external artifact that is missing at
// startup, before any pipeline stage runs.
type DependencyError struct {
	Name string
	Path string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("required %s not found at %s", e.Name, e.Path)
}

// Config carries every tunable of a run. It is built once at startup
// (defaults, then config file, then environment, then flags) and passed into
// the pipeline read-only.
type Config struct {
	// External artifacts
	LiumJar string `yaml:"lium_jar"`
	UBMPath string `yaml:"ubm"`
	DBDir   string `yaml:"db_dir"`

	// Scoring
	Workers        int     `yaml:"workers"`
	DistanceCutoff float64 `yaml:"distance_cutoff"`

	// Run behavior
	Interactive      bool `yaml:"-"`
	KeepIntermediate bool `yaml:"-"`
	Verbose          bool `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables only")
	}

	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".voiceid")

	cfg := &Config{
		LiumJar:        filepath.Join(base, "lib", "LIUM_SpkDiarization-4.7.jar"),
		UBMPath:        filepath.Join(base, "lib", "ubm.gmm"),
		DBDir:          filepath.Join(base, "gmm_db"),
		Workers:        runtime.NumCPU(),
		DistanceCutoff: 0.1,
		LogLevel:       "info",
	}

	if err := cfg.applyFile(getEnvOrDefault("VOICEID_CONFIG", filepath.Join(base, "config.yaml"))); err != nil {
		return nil, err
	}

	cfg.LiumJar = getEnvOrDefault("VOICEID_LIUM_JAR", cfg.LiumJar)
	cfg.UBMPath = getEnvOrDefault("VOICEID_UBM", cfg.UBMPath)
	cfg.DBDir = getEnvOrDefault("VOICEID_DB_DIR", cfg.DBDir)
	cfg.Workers = getIntEnvOrDefault("VOICEID_WORKERS", cfg.Workers)
	cfg.DistanceCutoff = getFloatEnvOrDefault("VOICEID_DISTANCE_CUTOFF", cfg.DistanceCutoff)
	cfg.LogLevel = getEnvOrDefault("VOICEID_LOG_LEVEL", cfg.LogLevel)

	return cfg, cfg.validate()
}

// applyFile overlays values from an optional YAML config file. A missing
// file is not an error; a present but unparsable one is.
func (c *Config) applyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.DistanceCutoff < 0 {
		return fmt.Errorf("distance_cutoff must be non-negative, got %f", c.DistanceCutoff)
	}
	return nil
}

// CheckDeps verifies the external artifacts every run needs. It is called
// once at startup; any failure aborts before the first pipeline stage.
func (c *Config) CheckDeps() error {
	if err := ensureNonEmpty(c.LiumJar); err != nil {
		return &DependencyError{Name: "diarization toolkit jar", Path: c.LiumJar}
	}
	if err := ensureNonEmpty(c.UBMPath); err != nil {
		return &DependencyError{Name: "background acoustic model", Path: c.UBMPath}
	}
	return nil
}

func ensureNonEmpty(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
