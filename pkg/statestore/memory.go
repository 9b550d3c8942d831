package statestore

import (
	"context"
	"iter"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Ledger for tests. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Record implements Ledger.
func (m *Memory) Record(_ context.Context, d Decision) error {
	val, err := encodeDecision(d)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[string(decisionKey(d.Source, d.Clip))] = val
	m.mu.Unlock()
	return nil
}

// Lookup implements Ledger.
func (m *Memory) Lookup(_ context.Context, source, clip string) (Decision, error) {
	m.mu.RLock()
	val, ok := m.data[string(decisionKey(source, clip))]
	m.mu.RUnlock()
	if !ok {
		return Decision{}, ErrNotFound
	}
	return decodeDecision(val)
}

// Decisions implements Ledger.
func (m *Memory) Decisions(_ context.Context, source string) iter.Seq2[Decision, error] {
	prefix := string(sourcePrefix(source))

	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	vals := make([][]byte, len(keys))
	for i, k := range keys {
		vals[i] = m.data[k]
	}
	m.mu.RUnlock()

	return func(yield func(Decision, error) bool) {
		for _, val := range vals {
			d, err := decodeDecision(val)
			if !yield(d, err) {
				return
			}
		}
	}
}

// Close implements Ledger.
func (m *Memory) Close() error { return nil }
