// Package transcript holds the speech-recognition result model shared by the
// segmentation pipeline: word-level timings, recognized segments, and the
// JSON artifact used to cache a completed transcription per source file.
//
// The package also provides the transcript text normalizer that turns raw
// recognized strings into dataset-ready sentences.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Word is a single recognized token with its timing inside the source audio.
// Times are seconds from the start of the source. Words are immutable and
// ordered within their segment.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the pronounced length of the word in seconds.
func (w Word) Duration() float64 {
	return w.End - w.Start
}

// Segment is one recognized utterance. Segments are ordered by start time
// but, being raw model output, may leave gaps or slightly overlap.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// Result is the full ordered transcription of one source file.
type Result struct {
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

// Load reads a cached transcription result from path.
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("transcript: parse %s: %w", path, err)
	}
	return &r, nil
}

// Save writes the result as the transcription cache artifact at path.
// The file is written to a temporary sibling and renamed into place so an
// interrupted run never leaves a torn artifact that looks complete.
func (r *Result) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
