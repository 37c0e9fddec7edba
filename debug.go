package threadid

import (
	"encoding/json"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugID labels a thread for humans. It renders the thread's unique id,
// followed by its name when it has one.
type DebugID struct {
	ID   UniqueID
	Name string
}

// CurrentDebugID returns the debug label of the calling goroutine in the
// default domain.
func CurrentDebugID() (DebugID, error) {
	return Default().DebugID()
}

// HasName reports whether the label carries a name.
func (d DebugID) HasName() bool {
	return d.Name != ""
}

// String renders 7 for an unnamed thread and 7("worker") for a named one.
func (d DebugID) String() string {
	s := d.ID.String()
	if d.HasName() {
		s += "(" + strconv.Quote(d.Name) + ")"
	}
	return s
}

// GoString renders ThreadId(7) or ThreadId(7, "worker").
func (d DebugID) GoString() string {
	s := "ThreadId(" + d.ID.String()
	if d.HasName() {
		s += ", " + strconv.Quote(d.Name)
	}
	return s + ")"
}

type debugJSON struct {
	Name string   `json:"name,omitempty"`
	ID   UniqueID `json:"id"`
}

func (d DebugID) MarshalJSON() ([]byte, error) {
	return json.Marshal(debugJSON{Name: d.Name, ID: d.ID})
}

// Field returns a zap field holding the label as an object.
func (d DebugID) Field(key string) zap.Field {
	return zap.Object(key, d)
}

// MarshalLogObject lets a DebugID be logged with zap.Object.
func (d DebugID) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if d.HasName() {
		enc.AddString("name", d.Name)
	}
	enc.AddUint64("id", d.ID.Uint64())
	return nil
}
