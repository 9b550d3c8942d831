package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.WorkDir != "." {
		t.Errorf("WorkDir = %q, want %q", cfg.WorkDir, ".")
	}
	if cfg.Locale != "JP" {
		t.Errorf("Locale = %q, want %q", cfg.Locale, "JP")
	}
	if cfg.Slice.TargetLUFS != -23 {
		t.Errorf("Slice.TargetLUFS = %v, want -23", cfg.Slice.TargetLUFS)
	}
	if cfg.Tools.Demucs != "demucs" {
		t.Errorf("Tools.Demucs = %q, want demucs", cfg.Tools.Demucs)
	}
	if len(cfg.Denylist) == 0 {
		t.Error("default Denylist is empty")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aivis.yaml")
	content := `
work_dir: /data/narration
locale: EN
slice:
  target_lufs: -14
  trim_silence: true
tools:
  demucs: /opt/demucs/bin/demucs
  recognizer:
    bin: recognize
    args: ["--language", "ja"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.WorkDir != "/data/narration" {
		t.Errorf("WorkDir = %q", cfg.WorkDir)
	}
	if cfg.Locale != "EN" {
		t.Errorf("Locale = %q, want EN", cfg.Locale)
	}
	if cfg.Slice.TargetLUFS != -14 {
		t.Errorf("TargetLUFS = %v, want -14", cfg.Slice.TargetLUFS)
	}
	if !cfg.Slice.TrimSilence {
		t.Error("TrimSilence not applied")
	}
	if cfg.Tools.Demucs != "/opt/demucs/bin/demucs" {
		t.Errorf("Tools.Demucs = %q", cfg.Tools.Demucs)
	}
	if cfg.Tools.Recognizer.Bin != "recognize" || len(cfg.Tools.Recognizer.Args) != 2 {
		t.Errorf("Recognizer = %+v", cfg.Tools.Recognizer)
	}
	// Untouched fields keep their defaults.
	if cfg.Tools.FFmpeg != "ffmpeg" {
		t.Errorf("Tools.FFmpeg = %q, want default", cfg.Tools.FFmpeg)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aivis.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() = nil for invalid YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aivis.yaml")
	want := Default()
	want.WorkDir = "/work"
	want.Slice.SearchSilence = true

	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.WorkDir != "/work" || !got.Slice.SearchSilence {
		t.Errorf("round trip = %+v", got)
	}
}
