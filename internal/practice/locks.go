package practice

import (
	"strconv"

	"github.com/moby/locker"
)

type recordKey struct {
	learnerID int64
	itemID    int64
}

func (k recordKey) String() string {
	return strconv.FormatInt(k.learnerID, 10) + ":" + strconv.FormatInt(k.itemID, 10)
}

// recordLocks serializes read-modify-write cycles per progress record.
type recordLocks struct {
	locker *locker.Locker
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locker: locker.New()}
}

// lock blocks until the record is free and returns its unlock function.
func (l *recordLocks) lock(key recordKey) func() {
	name := key.String()
	l.locker.Lock(name)
	return func() {
		_ = l.locker.Unlock(name)
	}
}
