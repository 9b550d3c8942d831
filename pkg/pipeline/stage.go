// Package pipeline provides the idempotency layer for the dataset
// pipeline's stages and the worker-process boundary used to run external
// model commands.
//
// A stage's record IS its output artifact: the stage is complete exactly
// when the well-known artifact exists with non-empty contents. There is no
// separate index, so an operator forces recomputation by deleting the
// artifact, and an interrupted run resumes safely because a stage is
// either fully present or fully absent.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Stage identifies one pipeline stage.
type Stage string

const (
	// StageSeparation is the voice-separation stage (source → dry vocal WAV).
	StageSeparation Stage = "separation"
	// StageTranscription is the speech-recognition stage (WAV → segment JSON).
	StageTranscription Stage = "transcription"
	// StageSegmentation is the clip-extraction stage (segment JSON → clips).
	StageSegmentation Stage = "segmentation"
	// StageDataset is the dataset-assembly stage (clips → speaker manifest).
	StageDataset Stage = "dataset"
)

// StageStatus reports whether a stage already holds complete output for a
// key. Implementations must treat empty output (zero-byte files, empty
// directories) as NOT complete so interrupted runs resume.
type StageStatus interface {
	Exists(stage Stage, key string) (bool, error)
}

// Layout maps pipeline stages to their well-known artifact paths under the
// working tree. Keys are source file stems.
type Layout struct {
	SourcesDir  string
	PreparedDir string
	SegmentsDir string
	DatasetsDir string
}

// DefaultLayout returns the numbered working tree rooted at base.
func DefaultLayout(base string) Layout {
	return Layout{
		SourcesDir:  filepath.Join(base, "01-Sources"),
		PreparedDir: filepath.Join(base, "02-PreparedSources"),
		SegmentsDir: filepath.Join(base, "03-Segments"),
		DatasetsDir: filepath.Join(base, "04-Datasets"),
	}
}

// VoicePath is the separated vocal-only waveform for a source stem.
func (l Layout) VoicePath(stem string) string {
	return filepath.Join(l.PreparedDir, stem+".wav")
}

// TranscriptPath is the cached transcription JSON for a source stem.
func (l Layout) TranscriptPath(stem string) string {
	return filepath.Join(l.PreparedDir, stem+".json")
}

// SegmentDir is the per-source clip output directory.
func (l Layout) SegmentDir(stem string) string {
	return filepath.Join(l.SegmentsDir, stem)
}

// SpeakerDir is the dataset output directory for a speaker.
func (l Layout) SpeakerDir(speaker string) string {
	return filepath.Join(l.DatasetsDir, speaker)
}

// ArtifactStatus implements StageStatus by probing the layout's artifact
// paths on disk.
type ArtifactStatus struct {
	Layout Layout
}

// Exists implements StageStatus.
func (a ArtifactStatus) Exists(stage Stage, key string) (bool, error) {
	switch stage {
	case StageSeparation:
		return nonEmptyFile(a.Layout.VoicePath(key))
	case StageTranscription:
		return nonEmptyFile(a.Layout.TranscriptPath(key))
	case StageSegmentation:
		return nonEmptyDir(a.Layout.SegmentDir(key))
	case StageDataset:
		return nonEmptyFile(filepath.Join(a.Layout.SpeakerDir(key), "transcripts.list"))
	default:
		return false, fmt.Errorf("pipeline: unknown stage %q", stage)
	}
}

// Cache wraps a StageStatus with the force-recompute policy: the force
// flag bypasses completeness for the transcription stage only, never the
// separation or clip outputs.
type Cache struct {
	Status          StageStatus
	ForceTranscribe bool
}

// ShouldRun reports whether the stage needs to run for key.
func (c *Cache) ShouldRun(stage Stage, key string) (bool, error) {
	if c.ForceTranscribe && stage == StageTranscription {
		return true, nil
	}
	done, err := c.Status.Exists(stage, key)
	if err != nil {
		return false, err
	}
	return !done, nil
}

func nonEmptyFile(path string) (bool, error) {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !fi.IsDir() && fi.Size() > 0, nil
}

func nonEmptyDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !fi.IsDir() {
		return false, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
