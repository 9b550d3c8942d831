// Package config loads the aivis working-tree configuration.
//
// Configuration lives in a single YAML file, by default aivis.yaml in the
// working directory. Every field has a usable default, so an empty or
// missing file yields a fully working pipeline with the standard tools
// resolved from PATH.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the root configuration.
type Config struct {
	// WorkDir is the root of the numbered working tree. Default ".".
	WorkDir string `yaml:"work_dir"`

	// Locale tags every dataset manifest row. Default "JP".
	Locale string `yaml:"locale"`

	Log    Log    `yaml:"log"`
	Refine Refine `yaml:"refine"`
	Slice  Slice  `yaml:"slice"`
	Tools  Tools  `yaml:"tools"`

	// Denylist holds normalized transcripts rejected as recognizer
	// hallucinations.
	Denylist []string `yaml:"denylist"`
}

// Log configures structured logging.
type Log struct {
	// Level is the logrus level name. Default "info".
	Level string `yaml:"level"`

	// File enables rotated file logging when set. Empty logs to stderr
	// only.
	File string `yaml:"file"`

	// MaxSizeMB and MaxBackups bound the rotated log files.
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
}

// Refine overrides boundary-refinement thresholds. Zero values keep the
// tuned defaults.
type Refine struct {
	MinTranscriptRunes int     `yaml:"min_transcript_runes"`
	MinClipSec         float64 `yaml:"min_clip_sec"`
}

// Slice configures clip post-processing.
type Slice struct {
	// TargetLUFS is the integrated loudness target. Default -23.
	TargetLUFS float64 `yaml:"target_lufs"`

	// PeakDB is the peak ceiling applied before loudness matching.
	// Default -1.
	PeakDB float64 `yaml:"peak_db"`

	// TrimSilence strips leading and trailing silence from each clip.
	TrimSilence bool `yaml:"trim_silence"`

	// SearchSilence cuts extended clip tails at the first silence onset
	// instead of the fixed refined end.
	SearchSilence bool `yaml:"search_silence"`
}

// Tools names the external commands the pipeline drives.
type Tools struct {
	// FFmpeg and FFprobe default to PATH lookup.
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`

	// Demucs is the source-separation command. Default "demucs".
	Demucs string `yaml:"demucs"`

	// DemucsModel selects the separation model. Default "htdemucs".
	DemucsModel string `yaml:"demucs_model"`

	// Device selects the compute device for model stages ("cuda", "cpu").
	Device string `yaml:"device"`

	// VADModel is a Silero ONNX model path. When set, the silence
	// search uses the model instead of the RMS detector and clips are
	// extracted at the 16 kHz rate the model expects.
	VADModel string `yaml:"vad_model"`

	Recognizer Recognizer `yaml:"recognizer"`
}

// Recognizer is the speech-recognition command contract: it is invoked
// with Args followed by the input WAV path and the output JSON path.
type Recognizer struct {
	Bin  string   `yaml:"bin"`
	Args []string `yaml:"args"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		WorkDir: ".",
		Locale:  "JP",
		Log: Log{
			Level:      "info",
			MaxSizeMB:  32,
			MaxBackups: 3,
		},
		Slice: Slice{
			TargetLUFS: -23,
			PeakDB:     -1,
		},
		Tools: Tools{
			FFmpeg:      "ffmpeg",
			FFprobe:     "ffprobe",
			Demucs:      "demucs",
			DemucsModel: "htdemucs",
		},
		Denylist: []string{
			"ご視聴ありがとうございました。",
			"ご視聴いただきありがとうございました。",
			"ご視聴頂きありがとうございました。",
			"チャンネル登録よろしくお願いします。",
			"チャンネル登録お願いします。",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	return cfg, nil
}

// Save writes the configuration as YAML. `aivis config init` uses it to
// bootstrap a configuration file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
