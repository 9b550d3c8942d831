// Package separate isolates the narration voice from a source recording,
// producing the dry vocal waveform the rest of the pipeline works on.
package separate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tsukumijima/Aivis/pkg/pipeline"
)

// Separator extracts the vocal stem of a source into dest as WAV.
type Separator interface {
	Separate(ctx context.Context, source, dest string) error
}

// Demucs runs the demucs source-separation CLI in a dedicated worker
// process. The model holds accelerator memory that only a process exit
// reliably frees, so each source gets a fresh process.
type Demucs struct {
	// Bin is the demucs executable. Empty resolves "demucs" from PATH.
	Bin string
	// Model is the separation model name. Empty means "htdemucs".
	Model string
	// Device selects the compute device ("cuda", "cpu"). Empty lets
	// demucs pick.
	Device string
	// Logger records worker lifecycle at debug level.
	Logger *logrus.Entry
}

// Separate implements Separator. Demucs writes its stems under an output
// tree, so the vocal stem is separated into a scratch directory and then
// moved to dest.
func (d *Demucs) Separate(ctx context.Context, source, dest string) error {
	bin := d.Bin
	if bin == "" {
		bin = "demucs"
	}
	model := d.Model
	if model == "" {
		model = "htdemucs"
	}

	destDir := filepath.Dir(dest)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("separate: %w", err)
	}
	scratch := filepath.Join(destDir, ".demucs-"+uuid.NewString())
	defer os.RemoveAll(scratch)

	args := []string{"--two-stems=vocals", "-n", model, "-o", scratch}
	if d.Device != "" {
		args = append(args, "-d", d.Device)
	}
	args = append(args, source)

	w := &pipeline.Worker{
		Name:   bin,
		Args:   args,
		Stderr: os.Stderr,
		Logger: d.Logger,
	}
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("separate: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	vocals := filepath.Join(scratch, model, stem, "vocals.wav")
	if _, err := os.Stat(vocals); err != nil {
		return fmt.Errorf("separate: demucs produced no vocal stem for %s: %w", stem, err)
	}
	if err := os.Rename(vocals, dest); err != nil {
		return fmt.Errorf("separate: %w", err)
	}
	return nil
}
