package window

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/commonsfund/treasury/pkg/treasury"
	"github.com/dgraph-io/badger"
)

// Store is the ephemeral storage tier. Spending window counters live in a
// badger keyspace with a TTL of two window lengths: once a window's validity
// period elapses the record is evicted, and a missing record reads back as
// "window not started, consumed = 0", which is exactly the lazy default the
// limit tracker expects.
type Store struct {
	db *badger.DB
}

// NewStore opens the ephemeral keyspace at the given path
func NewStore(path string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Window returns the stored counter for the kind, nil when absent or evicted
func (s *Store) Window(kind treasury.WindowKind) (*treasury.SpendingWindow, error) {
	var w *treasury.SpendingWindow

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(windowKey(kind))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}

			return err
		}

		return item.Value(func(val []byte) error {
			w = &treasury.SpendingWindow{}
			return json.Unmarshal(val, w)
		})
	})
	if err != nil {
		return nil, err
	}

	return w, nil
}

// SetWindows writes all given counters in one transaction, each with a TTL of
// two window lengths so stale buckets age out on their own
func (s *Store) SetWindows(ws ...*treasury.SpendingWindow) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, w := range ws {
			b, err := json.Marshal(w)
			if err != nil {
				return err
			}

			entry := badger.NewEntry(windowKey(w.Kind), b).WithTTL(2 * w.Kind.Duration())

			if err := txn.SetEntry(entry); err != nil {
				return err
			}
		}

		return nil
	})
}

// Close closes the underlying keyspace
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC reclaims space from evicted entries; safe to call periodically
func (s *Store) RunGC() {
	for {
		if err := s.db.RunValueLogGC(0.5); err != nil {
			return
		}
	}
}

func windowKey(kind treasury.WindowKind) []byte {
	return []byte(fmt.Sprintf("window_%s", kind))
}
