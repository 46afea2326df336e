package pubsub

import (
	"path/filepath"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"
)

// store persists subscriptions in a dedicated badger db.
type store struct {
	db *badgerhold.Store
}

func newStore(baseDir string, logger badger.Logger) (*store, error) {
	var dbDir string
	if len(baseDir) > 0 {
		dbDir = filepath.Join(baseDir, "pubsub")
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if len(dbDir) <= 0 {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}
	return &store{db}, nil
}

func (s *store) add(sub *Subscription) error {
	if err := s.db.Insert(sub.ID, sub); err != nil {
		if err == badgerhold.ErrKeyExists {
			return nil
		}
		return err
	}
	return nil
}

func (s *store) get(id string) (*Subscription, error) {
	var sub Subscription
	if err := s.db.Get(id, &sub); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *store) remove(id string) error {
	return s.db.Delete(id, Subscription{})
}

// listForEvent returns the subscriptions for the given event, or all of them
// if the event is empty.
func (s *store) listForEvent(event string) (subscriptions, error) {
	var query *badgerhold.Query
	if len(event) > 0 {
		query = badgerhold.Where("Event").Eq(event)
	}

	var subs subscriptions
	if err := s.db.Find(&subs, query); err != nil {
		return nil, err
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].ID < subs[j].ID
	})
	return subs, nil
}

func (s *store) close() error {
	return s.db.Close()
}
