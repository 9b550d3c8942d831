package statestore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tsukumijima/Aivis/pkg/statestore"
)

func newBadgerLedger(t *testing.T) statestore.Ledger {
	t.Helper()
	l, err := statestore.OpenBadger(statestore.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func ledgers(t *testing.T) map[string]statestore.Ledger {
	t.Helper()
	return map[string]statestore.Ledger{
		"badger": newBadgerLedger(t),
		"memory": statestore.NewMemory(),
	}
}

func TestRecordLookup(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := l.Lookup(ctx, "ep01", "0001.wav"); !errors.Is(err, statestore.ErrNotFound) {
				t.Fatalf("Lookup on empty ledger = %v, want ErrNotFound", err)
			}

			want := statestore.Decision{
				Source:     "ep01",
				Clip:       "0001.wav",
				Accepted:   true,
				Speaker:    "Narrator",
				Transcript: "こんにちは。",
			}
			if err := l.Record(ctx, want); err != nil {
				t.Fatalf("Record: %v", err)
			}
			got, err := l.Lookup(ctx, "ep01", "0001.wav")
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if got != want {
				t.Errorf("Lookup = %+v, want %+v", got, want)
			}
		})
	}
}

func TestRecordOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			first := statestore.Decision{Source: "ep01", Clip: "0001.wav", Accepted: false}
			if err := l.Record(ctx, first); err != nil {
				t.Fatal(err)
			}
			second := first
			second.Accepted = true
			second.Speaker = "Narrator"
			if err := l.Record(ctx, second); err != nil {
				t.Fatal(err)
			}
			got, err := l.Lookup(ctx, "ep01", "0001.wav")
			if err != nil {
				t.Fatal(err)
			}
			if !got.Accepted || got.Speaker != "Narrator" {
				t.Errorf("Lookup after overwrite = %+v, want second decision", got)
			}
		})
	}
}

func TestDecisionsScansOneSource(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			seed := []statestore.Decision{
				{Source: "ep01", Clip: "0002.wav", Accepted: true, Speaker: "A"},
				{Source: "ep01", Clip: "0001.wav", Accepted: false},
				{Source: "ep02", Clip: "0001.wav", Accepted: true, Speaker: "B"},
			}
			for _, d := range seed {
				if err := l.Record(ctx, d); err != nil {
					t.Fatal(err)
				}
			}

			var got []statestore.Decision
			for d, err := range l.Decisions(ctx, "ep01") {
				if err != nil {
					t.Fatalf("Decisions: %v", err)
				}
				got = append(got, d)
			}
			if len(got) != 2 {
				t.Fatalf("Decisions(ep01) yielded %d entries, want 2", len(got))
			}
			if got[0].Clip != "0001.wav" || got[1].Clip != "0002.wav" {
				t.Errorf("Decisions order = %s, %s; want lexicographic", got[0].Clip, got[1].Clip)
			}
			for _, d := range got {
				if d.Source != "ep01" {
					t.Errorf("Decisions leaked source %q", d.Source)
				}
			}
		})
	}
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	l, err := statestore.OpenBadger(statestore.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	want := statestore.Decision{Source: "ep01", Clip: "0001.wav", Accepted: true, Speaker: "Narrator"}
	if err := l.Record(ctx, want); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	l, err = statestore.OpenBadger(statestore.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	got, err := l.Lookup(ctx, "ep01", "0001.wav")
	if err != nil {
		t.Fatalf("Lookup after reopen: %v", err)
	}
	if got != want {
		t.Errorf("Lookup after reopen = %+v, want %+v", got, want)
	}
}

func TestOpenBadgerRequiresDir(t *testing.T) {
	if _, err := statestore.OpenBadger(statestore.BadgerOptions{}); err == nil {
		t.Error("OpenBadger without Dir: want error, got nil")
	}
}
