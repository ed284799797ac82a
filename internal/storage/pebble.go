package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

// Pebble is a Backend over a pebble LSM directory. Writes are synced to the WAL
// before Set returns.
type Pebble struct {
	mu    sync.Mutex // serializes quota accounting with the write it admits
	db    *pebble.DB
	quota quota
}

// OpenPebble opens (or creates) a pebble database in dir.
func OpenPebble(dir string, quotaBytes int64) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble db: %w", err)
	}
	return &Pebble{db: db, quota: quota(quotaBytes)}, nil
}

func (p *Pebble) Get(key string) ([]byte, bool, error) {
	value, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	defer closer.Close()
	return append([]byte(nil), value...), true, nil
}

func (p *Pebble) Set(key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.quota > 0 {
		used, replaced, err := p.usage(key)
		if err != nil {
			return err
		}
		if err := p.quota.admit(used, replaced, int64(len(value))); err != nil {
			return err
		}
	}
	if err := p.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (p *Pebble) Delete(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (p *Pebble) Keys(prefix string) ([]string, error) {
	iter, err := p.db.NewIter(prefixOptions(prefix))
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	return keys, iter.Error()
}

// Close flushes and closes the database.
func (p *Pebble) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Pebble) usage(key string) (used, replaced int64, err error) {
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return 0, 0, fmt.Errorf("measure usage: %w", err)
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		size := int64(len(iter.Value()))
		used += size
		if string(iter.Key()) == key {
			replaced = size
		}
	}
	return used, replaced, iter.Error()
}

func prefixOptions(prefix string) *pebble.IterOptions {
	if prefix == "" {
		return nil
	}
	lower := []byte(prefix)
	upper := append([]byte(nil), lower...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return &pebble.IterOptions{LowerBound: lower, UpperBound: upper[:i+1]}
		}
	}
	return &pebble.IterOptions{LowerBound: lower}
}
