// Package asr produces word-timestamped transcripts from prepared vocal
// waveforms by driving an external recognition command.
package asr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tsukumijima/Aivis/pkg/pipeline"
	"github.com/tsukumijima/Aivis/pkg/transcript"
)

// Transcriber converts a vocal waveform into a word-timestamped transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (*transcript.Result, error)
}

// Command runs a recognition model as a dedicated worker process. The
// command receives the input WAV path and an output JSON path as its two
// final arguments and must write transcript JSON to the output path.
// Recognition models hold accelerator memory that only a process exit
// reliably frees.
type Command struct {
	// Bin is the recognizer executable. Required.
	Bin string
	// Args precede the input and output paths. Model selection and
	// language hints go here.
	Args []string
	// Logger records worker lifecycle at debug level.
	Logger *logrus.Entry
}

// Transcribe implements Transcriber.
func (c *Command) Transcribe(ctx context.Context, wavPath string) (*transcript.Result, error) {
	if c.Bin == "" {
		return nil, fmt.Errorf("asr: no recognizer command configured")
	}
	out := filepath.Join(os.TempDir(), "asr-"+uuid.NewString()+".json")
	defer os.Remove(out)

	w := &pipeline.Worker{
		Name:   c.Bin,
		Args:   append(append([]string{}, c.Args...), wavPath, out),
		Stderr: os.Stderr,
		Logger: c.Logger,
	}
	if err := w.Run(ctx); err != nil {
		return nil, fmt.Errorf("asr: %w", err)
	}
	res, err := transcript.Load(out)
	if err != nil {
		return nil, fmt.Errorf("asr: reading recognizer output: %w", err)
	}
	return res, nil
}
