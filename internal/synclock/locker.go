// Package synclock serializes reconciliation runs per record. Acquire fails fast with
// ErrLocked instead of waiting, so a second caller learns that a sync is already in flight.
package synclock

import (
	"context"
	"errors"
	"fmt"
)

// ErrLocked is returned by Acquire when the key is held by someone else.
var ErrLocked = errors.New("lock is held")

// Locker hands out exclusive, non-blocking locks by key.
type Locker interface {
	// Acquire takes the lock for key. The returned release function is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// RecordKey is the lock key of a record's sync.
func RecordKey(externalRequestID, externalUserID string) string {
	return fmt.Sprintf("sync:record:%s:%s", externalRequestID, externalUserID)
}
