package transcript

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWordDuration(t *testing.T) {
	w := Word{Text: "そう", Start: 1.5, End: 2.1}
	if got := w.Duration(); got < 0.599 || got > 0.601 {
		t.Errorf("Duration() = %v, want 0.6", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r := &Result{
		Language: "ja",
		Segments: []Segment{
			{
				Start: 0.5,
				End:   2.0,
				Text:  "こんにちは",
				Words: []Word{
					{Text: "こんにちは", Start: 0.5, End: 2.0},
				},
			},
			{
				Start: 2.4,
				End:   4.0,
				Text:  "元気ですか",
				Words: []Word{
					{Text: "元気", Start: 2.4, End: 3.0},
					{Text: "ですか", Start: 3.0, End: 4.0},
				},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "source.json")
	if err := r.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// No leftover temp artifact.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file still present after Save")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Language != r.Language {
		t.Errorf("Language = %q, want %q", got.Language, r.Language)
	}
	if len(got.Segments) != len(r.Segments) {
		t.Fatalf("got %d segments, want %d", len(got.Segments), len(r.Segments))
	}
	if got.Segments[1].Words[0].Text != "元気" {
		t.Errorf("word text = %q, want %q", got.Segments[1].Words[0].Text, "元気")
	}
	if d := got.Segments[1].Words[0].Duration(); d < 0.599 || d > 0.601 {
		t.Errorf("word duration = %v, want 0.6", d)
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted invalid JSON")
	}
}
