package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tsukumijima/Aivis/cmd/aivis/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "aivis",
	Short: "Build voice-training datasets from narrated recordings",
	Long: `aivis - Turn narrated audio and video into per-utterance voice datasets.

The pipeline works through a numbered directory tree rooted at work_dir:

  01-Sources/          input recordings (audio or video)
  02-PreparedSources/  separated vocals + cached transcripts
  03-Segments/         per-source utterance clips with transcript sidecars
  04-Datasets/         per-speaker numbered clips + transcript manifest

Each stage records completion through its output artifact, so interrupted
runs resume where they left off and finished stages are never recomputed.

Examples:
  # Slice every source under 01-Sources into utterance clips
  aivis create-segments

  # Re-run recognition even when a cached transcript exists
  aivis create-segments --force-transcribe

  # Assign every clip from every source to the narrator's dataset
  aivis create-datasets --accept-all "*" Narrator

  # Only one source's clips
  aivis create-datasets --accept-all ep01 Narrator`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "aivis.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	// Tool credentials (HF tokens etc.) come from the environment; a
	// local .env is a convenience, not a requirement.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
	setupLogging(cfg)
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.Log.File != "" {
		file := cfg.Log.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(cfg.WorkDir, file)
		}
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		}
		logrus.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}
}
