// Package slicer cuts refined utterance windows out of a prepared source
// file and writes loudness-normalized mono WAV clips, named after their
// transcripts.
package slicer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tsukumijima/Aivis/pkg/audio/loudness"
	"github.com/tsukumijima/Aivis/pkg/audio/vad"
	"github.com/tsukumijima/Aivis/pkg/audio/wavio"
)

// Extractor pulls a time window out of a source media file and writes it
// as 44.1 kHz mono 16-bit PCM WAV.
type Extractor interface {
	Extract(ctx context.Context, source string, start, end float64, dest string) error
}

// DropError reports that a clip was extracted but discarded, with the
// output file already removed.
type DropError struct {
	Reason string
}

func (e *DropError) Error() string { return "slicer: clip dropped: " + e.Reason }

// Options tune clip post-processing.
type Options struct {
	// PreRoll is subtracted from every window start, clamped at zero.
	PreRoll float64
	// TargetLUFS is the integrated loudness target for the clip.
	TargetLUFS float64
	// PeakDB is the true-peak ceiling applied before loudness matching.
	PeakDB float64
	// TrimSilence strips leading and trailing silence from the clip.
	TrimSilence bool
	// TrimTopDB is the silence threshold below peak used by TrimSilence.
	TrimTopDB float64
	// MinDuration drops clips shorter than this many seconds.
	MinDuration float64
}

// DefaultOptions returns the dataset-production settings.
func DefaultOptions() Options {
	return Options{
		PreRoll:     0.1,
		TargetLUFS:  -23,
		PeakDB:      -1,
		TrimTopDB:   30,
		MinDuration: 1.0,
	}
}

// Request is one utterance window to cut.
type Request struct {
	// Source is the prepared media file to cut from.
	Source string
	// Start and End bound the utterance in seconds within Source.
	Start, End float64
	// EndMin, when positive, marks the
	// earliest acceptable cut point: the window from EndMin to End is
	// searched for the first silence onset and the clip is cut there.
	EndMin float64
	// Text is the full normalized transcript.
	Text string
	// Dest is the final clip path.
	Dest string
	// Sidecar writes Text to a sidecar file sharing Dest's stem. Set
	// when the clip filename had to truncate the transcript.
	Sidecar bool
}

// Slicer extracts and post-processes clips.
type Slicer struct {
	Extractor Extractor
	// Detector overrides the RMS silence detector used for the EndMin
	// search. The model-backed detector requires the extractor to
	// produce matching sample rates.
	Detector vad.Detector
	Options  Options
	Logger   *logrus.Entry
}

// New returns a Slicer with the given extractor and default options.
func New(ex Extractor) *Slicer {
	return &Slicer{Extractor: ex, Options: DefaultOptions()}
}

// Slice cuts the request's window, normalizes it, and writes the clip
// (plus the transcript sidecar when requested). It returns a *DropError
// when the clip falls below the minimum duration; the partial output is
// removed first.
func (s *Slicer) Slice(ctx context.Context, req Request) error {
	start := req.Start - s.Options.PreRoll
	if start < 0 {
		start = 0
	}

	dir := filepath.Dir(req.Dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("slicer: %w", err)
	}
	tmp := filepath.Join(dir, "."+uuid.NewString()+".wav")
	defer os.Remove(tmp)

	if err := s.Extractor.Extract(ctx, req.Source, start, req.End, tmp); err != nil {
		return fmt.Errorf("slicer: extract %s: %w", filepath.Base(req.Source), err)
	}
	buf, err := wavio.Read(tmp)
	if err != nil {
		return fmt.Errorf("slicer: %w", err)
	}
	samples := buf.Mono().Data

	if req.EndMin > start && req.EndMin < req.End {
		samples = s.cutAtSilence(samples, buf.SampleRate, req.EndMin-start)
	}
	if s.Options.TrimSilence {
		lo, hi := vad.TrimBounds(samples, buf.SampleRate, s.Options.TrimTopDB)
		samples = samples[lo:hi]
	}

	if dur := float64(len(samples)) / float64(buf.SampleRate); dur < s.Options.MinDuration {
		return &DropError{Reason: fmt.Sprintf("%.2fs below %.2fs minimum", dur, s.Options.MinDuration)}
	}

	loudness.NormalizePeak(samples, s.Options.PeakDB)
	meter := loudness.NewMeter(buf.SampleRate, 0)
	lufs, err := meter.Integrated(samples)
	switch {
	case errors.Is(err, loudness.ErrSilent), errors.Is(err, loudness.ErrTooShort):
		if s.Logger != nil {
			s.Logger.WithField("clip", filepath.Base(req.Dest)).Debug("skipping loudness normalize")
		}
	case err != nil:
		return fmt.Errorf("slicer: %w", err)
	default:
		loudness.Gain(samples, s.Options.TargetLUFS-lufs)
	}

	if err := wavio.Write(req.Dest, samples, buf.SampleRate); err != nil {
		return fmt.Errorf("slicer: %w", err)
	}
	if req.Sidecar {
		if err := WriteSidecar(req.Dest, req.Text); err != nil {
			os.Remove(req.Dest)
			return err
		}
	}
	return nil
}

// cutAtSilence truncates samples at the first silence onset at or after
// minSec. When no silence falls inside the search window the full buffer
// is kept.
func (s *Slicer) cutAtSilence(samples []float64, rate int, minSec float64) []float64 {
	det := s.Detector
	if det == nil {
		det = &vad.Energy{}
	}
	regions, err := det.DetectSpeech(samples, rate)
	if err != nil || len(regions) == 0 {
		return samples
	}
	total := float64(len(samples)) / float64(rate)
	for _, onset := range vad.SilenceStarts(regions, total) {
		if onset >= minSec {
			n := int(onset * float64(rate))
			if n < len(samples) {
				return samples[:n]
			}
			return samples
		}
	}
	return samples
}
