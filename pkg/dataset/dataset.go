// Package dataset assembles accepted clips into per-speaker training
// datasets: sequentially numbered audio files plus a pipe-delimited
// transcript manifest.
package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ManifestName is the transcript manifest file within a speaker directory.
const ManifestName = "transcripts.list"

// audiosDir holds the numbered clip files within a speaker directory.
const audiosDir = "audios"

// Accumulator appends accepted clips to speaker datasets. Sequence
// numbers continue from whatever already exists on disk, so repeated
// runs extend a dataset instead of overwriting it. The existing files
// are scanned once per speaker; later additions count in memory.
type Accumulator struct {
	// Root is the datasets directory. Speaker directories live under it.
	Root string
	// Locale tags every manifest row. Empty means "JP".
	Locale string

	mu   sync.Mutex
	next map[string]int
}

// NewAccumulator returns an Accumulator writing under root.
func NewAccumulator(root, locale string) *Accumulator {
	if locale == "" {
		locale = "JP"
	}
	return &Accumulator{Root: root, Locale: locale, next: make(map[string]int)}
}

// SpeakerDir is the dataset directory for a speaker.
func (a *Accumulator) SpeakerDir(speaker string) string {
	return filepath.Join(a.Root, speaker)
}

// Accept copies the clip into the speaker's dataset under the next
// sequence number and appends its manifest row. It returns the written
// clip path.
func (a *Accumulator) Accept(speaker, clipPath, transcript string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seq, err := a.nextSeq(speaker)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%04d.wav", seq)
	dir := filepath.Join(a.SpeakerDir(speaker), audiosDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("dataset: %w", err)
	}
	written := filepath.Join(dir, name)
	if err := copyFile(clipPath, written); err != nil {
		return "", fmt.Errorf("dataset: copying clip: %w", err)
	}

	row := fmt.Sprintf("%s|%s|%s|%s\n", name, speaker, a.Locale, sanitizeTranscript(transcript))
	if err := appendLine(filepath.Join(a.SpeakerDir(speaker), ManifestName), row); err != nil {
		return "", fmt.Errorf("dataset: appending manifest: %w", err)
	}
	a.next[speaker] = seq + 1
	return written, nil
}

// nextSeq returns the sequence number for the speaker's next clip,
// scanning the existing files the first time a speaker is seen.
func (a *Accumulator) nextSeq(speaker string) (int, error) {
	if n, ok := a.next[speaker]; ok {
		return n, nil
	}
	max := 0
	entries, err := os.ReadDir(filepath.Join(a.SpeakerDir(speaker), audiosDir))
	if err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("dataset: scanning %s: %w", speaker, err)
	}
	for _, e := range entries {
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		n, err := strconv.Atoi(stem)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	a.next[speaker] = max + 1
	return max + 1, nil
}

// sanitizeTranscript keeps the manifest one-row-per-clip: the delimiter
// and newlines inside a transcript would corrupt the format.
func sanitizeTranscript(s string) string {
	s = strings.ReplaceAll(s, "|", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
