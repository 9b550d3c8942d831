// Package statestore persists dataset review decisions. Appending a clip
// to a speaker manifest is not retry-safe, so every accept or reject is
// recorded here first and an interrupted review session resumes from the
// ledger instead of re-asking or double-appending.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
)

// ErrNotFound is returned when no decision exists for a clip.
var ErrNotFound = errors.New("statestore: not found")

// Decision is the recorded review outcome for one clip.
type Decision struct {
	// Source is the stem of the prepared source the clip came from.
	Source string `json:"source"`
	// Clip is the clip filename within the source's segment directory.
	Clip string `json:"clip"`
	// Accepted reports whether the clip enters a dataset.
	Accepted bool `json:"accepted"`
	// Speaker is the assigned speaker name. Empty when rejected.
	Speaker string `json:"speaker,omitempty"`
	// Transcript is the final transcript, including any manual edits.
	Transcript string `json:"transcript,omitempty"`
}

// Ledger stores review decisions keyed by (source, clip).
type Ledger interface {
	// Record stores a decision, overwriting any earlier one for the clip.
	Record(ctx context.Context, d Decision) error

	// Lookup returns the decision for a clip, or ErrNotFound.
	Lookup(ctx context.Context, source, clip string) (Decision, error)

	// Decisions iterates all recorded decisions for a source in
	// lexicographic clip order.
	Decisions(ctx context.Context, source string) iter.Seq2[Decision, error]

	// Close releases the underlying store.
	Close() error
}

const keySeparator = ':'

// decisionKey encodes the ledger key for a clip. Source stems come from
// filenames and never contain the separator on any platform we scan.
func decisionKey(source, clip string) []byte {
	buf := make([]byte, 0, len("decision")+len(source)+len(clip)+2)
	buf = append(buf, "decision"...)
	buf = append(buf, keySeparator)
	buf = append(buf, source...)
	buf = append(buf, keySeparator)
	buf = append(buf, clip...)
	return buf
}

// sourcePrefix encodes the scan prefix for all of a source's decisions.
func sourcePrefix(source string) []byte {
	buf := make([]byte, 0, len("decision")+len(source)+2)
	buf = append(buf, "decision"...)
	buf = append(buf, keySeparator)
	buf = append(buf, source...)
	buf = append(buf, keySeparator)
	return buf
}

func encodeDecision(d Decision) ([]byte, error) {
	return json.Marshal(d)
}

func decodeDecision(b []byte) (Decision, error) {
	var d Decision
	err := json.Unmarshal(b, &d)
	return d, err
}
