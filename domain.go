package threadid

import (
	"sync"

	"github.com/moontrade/threadid/config"
	"github.com/moontrade/threadid/pkg/counter"
	"github.com/moontrade/threadid/pkg/gid"
	"github.com/moontrade/threadid/pkg/slots"
)

// A Domain owns the shared state behind thread ids: the live slot allocator,
// the unique id counter and the table of attached goroutines. Most programs
// use the process-wide Default domain through the package functions.
//
// A goroutine may be attached to several domains; each attachment has its
// own Thread record and its own live id.
type Domain struct {
	alloc    *slots.Allocator
	unique   *counter.Counter
	registry *registry
	names    func(goroutineID uint64) (string, bool)
}

// DomainOption configures a Domain.
type DomainOption func(*Domain)

// WithAllocator makes the domain lease live ids from a.
func WithAllocator(a *slots.Allocator) DomainOption {
	return func(d *Domain) { d.alloc = a }
}

// WithCounter makes the domain draw unique ids from c instead of the
// process-wide counter. Ids from different counters may collide.
func WithCounter(c *counter.Counter) DomainOption {
	return func(d *Domain) { d.unique = c }
}

// WithNameLookup sets the fallback used to name threads attached without
// WithName.
func WithNameLookup(fn func(goroutineID uint64) (string, bool)) DomainOption {
	return func(d *Domain) { d.names = fn }
}

// WithShards sets the number of registry shards.
func WithShards(n int) DomainOption {
	return func(d *Domain) { d.registry = newRegistry(n) }
}

var (
	processUnique = counter.NewUnbounded()

	defaultOnce   sync.Once
	defaultDomain *Domain
)

// NewDomain builds a domain with its own live id space. Unless WithCounter is
// given it shares the process-wide unique counter, so unique ids stay unique
// across domains.
func NewDomain(opts ...DomainOption) *Domain {
	d := &Domain{
		unique: processUnique,
		names:  config.NameLookup,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.alloc == nil {
		d.alloc = slots.New(config.SlotOptions()...)
	}
	if d.registry == nil {
		d.registry = newRegistry(config.RegistryShards)
	}
	return d
}

// Default returns the process-wide domain. It is built from the config
// package on first use and never torn down.
func Default() *Domain {
	defaultOnce.Do(func() {
		slots.SetDefaultOptions(config.SlotOptions()...)
		defaultDomain = NewDomain(WithAllocator(slots.Default()))
	})
	return defaultDomain
}

// Allocator returns the domain's live slot allocator.
func (d *Domain) Allocator() *slots.Allocator {
	return d.alloc
}

// Attached returns the number of goroutines currently attached.
func (d *Domain) Attached() int {
	return d.registry.len()
}

// Current returns the calling goroutine's thread record.
func (d *Domain) Current() (*Thread, bool) {
	return d.registry.load(gid.GID())
}

// LiveID returns the calling goroutine's live id.
func (d *Domain) LiveID() (LiveID, error) {
	t, ok := d.Current()
	if !ok {
		return 0, ErrDetached
	}
	return t.LiveID()
}

// UniqueID returns the calling goroutine's unique id.
func (d *Domain) UniqueID() (UniqueID, error) {
	t, ok := d.Current()
	if !ok {
		return 0, ErrDetached
	}
	return t.UniqueID()
}

// DebugID returns the calling goroutine's debug label.
func (d *Domain) DebugID() (DebugID, error) {
	t, ok := d.Current()
	if !ok {
		return DebugID{}, ErrDetached
	}
	return t.DebugID()
}
