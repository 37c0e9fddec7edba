package threadid

import (
	"strconv"

	"github.com/moontrade/threadid/pkg/gid"
	"go.uber.org/zap"
)

// StdID is the runtime's own handle for a goroutine. Two StdIDs are equal
// exactly when they name the same goroutine. No ordering is implied.
type StdID struct {
	goid uint64
}

// CurrentStdID returns the StdID of the calling goroutine. It works whether
// or not the goroutine is attached.
func CurrentStdID() StdID {
	return StdID{goid: gid.GID()}
}

func (id StdID) Equal(other StdID) bool {
	return id.goid == other.goid
}

// GoroutineID returns the runtime's goroutine id.
func (id StdID) GoroutineID() uint64 {
	return id.goid
}

func (id StdID) String() string {
	return "goroutine " + strconv.FormatUint(id.goid, 10)
}

// Field returns a zap field carrying the goroutine id.
func (id StdID) Field(key string) zap.Field {
	return zap.Uint64(key, id.goid)
}

// UniqueID identifies a thread for the lifetime of the process. Values are
// handed out in increasing order starting at 1 and are never reused, even
// after the owning thread ends.
type UniqueID uint64

func (id UniqueID) Uint64() uint64 {
	return uint64(id)
}

// Compare returns -1, 0 or +1. A smaller id was allocated earlier.
func (id UniqueID) Compare(other UniqueID) int {
	switch {
	case id < other:
		return -1
	case id > other:
		return 1
	default:
		return 0
	}
}

func (id UniqueID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id UniqueID) Field(key string) zap.Field {
	return zap.Uint64(key, uint64(id))
}

// LiveID identifies a thread among the threads alive right now. Once the
// thread detaches its LiveID can be handed to a new thread. Live ids are kept
// as small as possible, which makes them usable as slice indexes.
type LiveID uint

// Index returns the id as a slice index.
func (id LiveID) Index() int {
	return int(id)
}

func (id LiveID) Uint() uint {
	return uint(id)
}

func (id LiveID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id LiveID) Field(key string) zap.Field {
	return zap.Uint(key, uint(id))
}

// GoString formats as LiveThreadId(n).
func (id LiveID) GoString() string {
	return "LiveThreadId(" + id.String() + ")"
}
