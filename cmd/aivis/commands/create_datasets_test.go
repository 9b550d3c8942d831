package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/tsukumijima/Aivis/pkg/dataset"
	"github.com/tsukumijima/Aivis/pkg/pipeline"
	"github.com/tsukumijima/Aivis/pkg/statestore"
)

func newDatasetsRunner(t *testing.T, pattern, speaker string) *datasetsRunner {
	t.Helper()
	layout := pipeline.DefaultLayout(t.TempDir())
	if err := os.MkdirAll(layout.SegmentsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return &datasetsRunner{
		layout:  layout,
		ledger:  statestore.NewMemory(),
		acc:     dataset.NewAccumulator(layout.DatasetsDir, "JP"),
		pattern: pattern,
		speaker: speaker,
		out:     &bytes.Buffer{},
		log:     logrus.WithField("cmd", "test"),
	}
}

func addClip(t *testing.T, layout pipeline.Layout, source, name, sidecar string) {
	t.Helper()
	dir := layout.SegmentDir(source)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("RIFF"+name), 0o644); err != nil {
		t.Fatal(err)
	}
	if sidecar != "" {
		txt := strings.TrimSuffix(name, ".wav") + ".txt"
		if err := os.WriteFile(filepath.Join(dir, txt), []byte(sidecar), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readManifest(t *testing.T, r *datasetsRunner, speaker string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.acc.SpeakerDir(speaker), dataset.ManifestName))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	return string(data)
}

func TestDatasetsAssignsAllClips(t *testing.T) {
	r := newDatasetsRunner(t, "*", "Narrator")
	addClip(t, r.layout, "ep01", "0001_おはよう。.wav", "")
	addClip(t, r.layout, "ep02", "0001_こんにちは。.wav", "")

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	got := readManifest(t, r, "Narrator")
	if !strings.Contains(got, "0001.wav|Narrator|JP|おはよう。") {
		t.Errorf("manifest missing first clip: %q", got)
	}
	if !strings.Contains(got, "0002.wav|Narrator|JP|こんにちは。") {
		t.Errorf("manifest missing second clip: %q", got)
	}
}

func TestDatasetsPatternFiltersSources(t *testing.T) {
	r := newDatasetsRunner(t, "ep01", "Narrator")
	addClip(t, r.layout, "ep01", "0001_おはよう。.wav", "")
	addClip(t, r.layout, "ep02", "0001_こんにちは。.wav", "")

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	got := readManifest(t, r, "Narrator")
	if strings.Contains(got, "こんにちは") {
		t.Errorf("pattern did not filter sources: %q", got)
	}
}

func TestDatasetsSidecarOverridesFilename(t *testing.T) {
	r := newDatasetsRunner(t, "*", "Narrator")
	addClip(t, r.layout, "ep01", "0001_短縮名。.wav", "完全な長い書き起こし文。")

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	got := readManifest(t, r, "Narrator")
	if !strings.Contains(got, "|完全な長い書き起こし文。") {
		t.Errorf("sidecar transcript not used: %q", got)
	}
}

func TestDatasetsResumeSkipsAssigned(t *testing.T) {
	r := newDatasetsRunner(t, "*", "Narrator")
	addClip(t, r.layout, "ep01", "0001_おはよう。.wav", "")
	addClip(t, r.layout, "ep01", "0002_こんにちは。.wav", "")

	ctx := context.Background()
	if err := r.ledger.Record(ctx, statestore.Decision{
		Source: "ep01", Clip: "0001_おはよう。.wav", Accepted: true, Speaker: "Narrator",
	}); err != nil {
		t.Fatal(err)
	}

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	got := readManifest(t, r, "Narrator")
	if strings.Contains(got, "おはよう") {
		t.Errorf("already-assigned clip appended again: %q", got)
	}
	if !strings.Contains(got, "こんにちは。") {
		t.Errorf("unassigned clip not appended: %q", got)
	}
}

func TestDatasetsRunTwiceNoDuplicates(t *testing.T) {
	r := newDatasetsRunner(t, "*", "Narrator")
	addClip(t, r.layout, "ep01", "0001_おはよう。.wav", "")

	ctx := context.Background()
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	got := readManifest(t, r, "Narrator")
	if strings.Count(got, "\n") != 1 {
		t.Errorf("manifest rows after two runs = %q, want 1 row", got)
	}
}

func TestDatasetsEmptyGlobFails(t *testing.T) {
	r := newDatasetsRunner(t, "nothing-here", "Narrator")
	if err := r.Run(context.Background()); err == nil {
		t.Error("Run() = nil for pattern matching no clips")
	}
}
