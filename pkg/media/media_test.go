package media

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanSources(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b-episode.mp4"))
	touch(t, filepath.Join(root, "a-episode.WAV"))
	touch(t, filepath.Join(root, "nested", "deep", "c-episode.flac"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "cover.jpg"))

	got, err := ScanSources(root)
	if err != nil {
		t.Fatalf("ScanSources() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ScanSources() found %d sources, want 3", len(got))
	}
	wantStems := []string{"a-episode", "b-episode", "c-episode"}
	for i, s := range got {
		if s.Stem != wantStems[i] {
			t.Errorf("source %d stem = %q, want %q", i, s.Stem, wantStems[i])
		}
	}
}

func TestScanSourcesStableOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"z.wav", "a.wav", "m.mkv"} {
		touch(t, filepath.Join(root, name))
	}
	first, err := ScanSources(root)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ScanSources(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("scan counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("scan order unstable at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestScanSourcesMissingRoot(t *testing.T) {
	if _, err := ScanSources(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("ScanSources on missing root: want error, got nil")
	}
}

func TestIsSource(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.wav", true},
		{"a.WAV", true},
		{"a.m2ts", true},
		{"a.webm", true},
		{"a.txt", false},
		{"a.json", false},
		{"wav", false},
	}
	for _, tt := range tests {
		if got := IsSource(tt.path); got != tt.want {
			t.Errorf("IsSource(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
