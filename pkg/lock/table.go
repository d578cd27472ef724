// Package lock tracks which client is allowed to store each file.
package lock

import (
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/simpledfs/pkg/errors"
)

// ReasonHeld is the reason given when another client holds the lock.
const ReasonHeld = "File is locked by another client"

// Entry is an exclusive claim on a filename.
type Entry struct {
	Holder  string
	Granted time.Time
}

// Table maps filenames to their lock holder. There is no unlock operation:
// a lock is released by the holder storing the file, or taken over by
// another client once the lease has elapsed.
//
// Table is not safe for concurrent use. The sync server serializes all
// access to it together with the file store.
type Table struct {
	clock   clockwork.Clock
	lease   time.Duration
	entries map[string]Entry
}

// NewTable returns an empty lock table. A lease of zero means that locks never
// expire.
func NewTable(clock clockwork.Clock, lease time.Duration) *Table {
	return &Table{
		clock:   clock,
		lease:   lease,
		entries: map[string]Entry{},
	}
}

// Acquire grants `holder` the lock on `filename`. The lock is granted if the
// file is unlocked, already held by `holder`, or held by a client whose lease
// has expired. Otherwise a LockDenied error is returned and the table is left
// unchanged.
func (t *Table) Acquire(filename, holder string) error {
	curr, ok := t.entries[filename]
	if ok && curr.Holder != holder {
		if !t.expired(curr) {
			return errors.LockDenied{Filename: filename, Reason: ReasonHeld}
		}

		log.WithFields(log.Fields{
			"file":         filename,
			"staleHolder":  curr.Holder,
			"newHolder":    holder,
			"grantedSince": t.clock.Since(curr.Granted).Round(time.Second),
		}).Info("Lock lease expired, granting to new holder")
	}

	t.entries[filename] = Entry{Holder: holder, Granted: t.clock.Now()}
	return nil
}

// Release removes the lock on `filename`, regardless of who holds it.
func (t *Table) Release(filename string) {
	delete(t.entries, filename)
}

// HeldBy returns whether `holder` currently owns the lock on `filename`. A
// holder whose lease expired still owns the lock until someone else claims
// it.
func (t *Table) HeldBy(filename, holder string) bool {
	curr, ok := t.entries[filename]
	return ok && curr.Holder == holder
}

// Get returns the lock entry for `filename`, if any.
func (t *Table) Get(filename string) (Entry, bool) {
	e, ok := t.entries[filename]
	return e, ok
}

// Len returns the number of held locks.
func (t *Table) Len() int {
	return len(t.entries)
}

func (t *Table) expired(e Entry) bool {
	return t.lease > 0 && t.clock.Since(e.Granted) >= t.lease
}
