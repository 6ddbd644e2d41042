package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
)

var (
	recordPrefix = []byte("record/")
	sequenceKey  = []byte("seq/record")
)

// BadgerStore keeps records in an embedded key-value database. Keys carry a
// monotonic sequence number so iteration order matches insertion order.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewBadgerStore opens a badger database at path. An empty path keeps the
// data in memory only.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	seq, err := db.GetSequence(sequenceKey, 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open record sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

func recordKey(n uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", recordPrefix, n))
}

// Add stores a record as JSON
func (s *BadgerStore) Add(ctx context.Context, r *models.ContextRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepare(r)

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	n, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next record sequence: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(n), data)
	})
}

// List returns every record in key order
func (s *BadgerStore) List(ctx context.Context) ([]models.ContextRecord, error) {
	records := []models.ContextRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r models.ContextRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("decode record %s: %w", it.Item().Key(), err)
			}
			records = append(records, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Ping reports whether the database is still open
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// Close releases the sequence and closes the database
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release record sequence: %w", err)
	}
	return s.db.Close()
}
