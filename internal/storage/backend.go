package storage

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded is returned by a Backend that refuses a write for capacity reasons.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Backend is a synchronous key/value store. Implementations must be safe for
// concurrent use.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	// Keys returns every key starting with prefix in lexical order.
	Keys(prefix string) ([]string, error)
	Close() error
}

// quota caps the total size of persisted values; zero disables the cap.
type quota int64

func (q quota) admit(used, replaced, incoming int64) error {
	if q <= 0 {
		return nil
	}
	if next := used - replaced + incoming; next > int64(q) {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrQuotaExceeded, incoming, used-replaced, int64(q))
	}
	return nil
}
