package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/voiceid/internal/config"
	"github.com/user/voiceid/internal/db"
	"github.com/user/voiceid/internal/pipeline"
)

const usage = `usage: voiceid ARGS

examples:
    speaker identification
        voiceid [ -d GMM_DB ] [ -j JAR_PATH ] -i INPUT_FILE

    speaker model creation
        voiceid [ -d GMM_DB ] [ -j JAR_PATH ] -s SPEAKER_ID -g INPUT_FILE
        voiceid [ -d GMM_DB ] [ -j JAR_PATH ] -s SPEAKER_ID -g WAVE WAVE ... WAVE MERGED_WAVES

flags must come before the wave arguments
`

func main() {
	var (
		identifyPath string
		buildModel   bool
		speakerID    string
		dbDir        string
		jarPath      string
		interactive  bool
		keep         bool
		verbose      bool
	)

	flag.StringVar(&identifyPath, "i", "", "identify speakers in a video or audio file")
	flag.BoolVar(&buildModel, "g", false, "build a speaker model from the wave arguments")
	flag.StringVar(&speakerID, "s", "", "speaker identifier for model building")
	flag.StringVar(&dbDir, "d", "", "speaker model database path override")
	flag.StringVar(&jarPath, "j", "", "diarization toolkit jar path override")
	flag.BoolVar(&interactive, "u", false, "interactively name unrecognized speakers")
	flag.BoolVar(&keep, "k", false, "keep all intermediate files")
	flag.BoolVar(&verbose, "v", false, "verbose mode")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	if jarPath != "" {
		cfg.LiumJar = jarPath
	}
	cfg.Interactive = interactive
	cfg.KeepIntermediate = keep
	cfg.Verbose = verbose
	if verbose {
		cfg.LogLevel = "debug"
	}

	setupLogging(cfg.LogLevel)

	if err := cfg.CheckDeps(); err != nil {
		log.Fatal().Err(err).Msg("Dependency check failed")
	}
	database, err := db.Open(cfg.DBDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open model database")
	}

	orchestrator := pipeline.New(cfg, database)
	ctx := context.Background()

	switch {
	case identifyPath != "":
		input, err := pipeline.NormalizeInput(identifyPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare input file")
		}
		if err := orchestrator.Identify(ctx, input); err != nil {
			log.Fatal().Err(err).Str("input", input).Msg("Identification run failed")
		}

	case buildModel && speakerID != "":
		waves := flag.Args()
		if len(waves) == 0 {
			flag.Usage()
			os.Exit(2)
		}
		if err := validateWaveArgs(waves); err != nil {
			log.Fatal().Err(err).Msg("Invalid enrollment arguments")
		}
		if err := orchestrator.Trainer().EnrollWaves(ctx, waves, speakerID); err != nil {
			log.Fatal().Err(err).Str("speaker", speakerID).Msg("Model enrollment failed")
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

// validateWaveArgs rejects flag-looking positional arguments. Flag parsing
// stops at the first positional argument, so a trailing -d DB would otherwise
// pass through as two wave paths.
func validateWaveArgs(waves []string) error {
	for _, w := range waves {
		if strings.HasPrefix(w, "-") {
			return fmt.Errorf("flag %s must come before the wave arguments", w)
		}
	}
	return nil
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
