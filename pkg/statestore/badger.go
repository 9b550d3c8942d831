package statestore

import (
	"context"
	"errors"
	"iter"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// Badger is a Ledger backed by BadgerDB v4, stored under the working
// tree so the review state travels with the data it describes.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the on-disk ledger.
type BadgerOptions struct {
	// Dir holds the database files. Required unless InMemory is set.
	Dir string

	// InMemory runs badger without disk persistence, for tests.
	InMemory bool

	// Logger receives badger's own diagnostics. Nil silences info and
	// debug output and routes warnings through logrus.
	Logger badger.Logger
}

// OpenBadger opens or creates the ledger database.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("statestore: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	if opts.Logger != nil {
		dbOpts = dbOpts.WithLogger(opts.Logger)
	} else {
		dbOpts = dbOpts.WithLogger(quietLogger{})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

// Record implements Ledger.
func (b *Badger) Record(_ context.Context, d Decision) error {
	val, err := encodeDecision(d)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(decisionKey(d.Source, d.Clip), val)
	})
}

// Lookup implements Ledger.
func (b *Badger) Lookup(_ context.Context, source, clip string) (Decision, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(decisionKey(source, clip))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Decision{}, ErrNotFound
	}
	if err != nil {
		return Decision{}, err
	}
	return decodeDecision(val)
}

// Decisions implements Ledger.
func (b *Badger) Decisions(_ context.Context, source string) iter.Seq2[Decision, error] {
	prefix := sourcePrefix(source)
	return func(yield func(Decision, error) bool) {
		err := b.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = prefix
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				val, err := it.Item().ValueCopy(nil)
				if err != nil {
					if !yield(Decision{}, err) {
						return nil
					}
					continue
				}
				d, err := decodeDecision(val)
				if !yield(d, err) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(Decision{}, err)
		}
	}
}

// Close implements Ledger.
func (b *Badger) Close() error {
	return b.db.Close()
}

// quietLogger drops badger's info and debug chatter and keeps problems
// visible through the application logger.
type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...interface{})   { logrus.Errorf("badger: "+f, v...) }
func (quietLogger) Warningf(f string, v ...interface{}) { logrus.Warnf("badger: "+f, v...) }
func (quietLogger) Infof(string, ...interface{})        {}
func (quietLogger) Debugf(string, ...interface{})       {}
