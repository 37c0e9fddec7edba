package threadid

import (
	"encoding/binary"

	"github.com/bytedance/gopkg/util/xxhash3"
	"github.com/moontrade/threadid/pkg/pmath"
	"github.com/moontrade/threadid/pkg/spinlock"
	"golang.org/x/sys/cpu"
)

// registry maps goroutine ids to attached threads. It is sharded by a hash of
// the goroutine id; each shard is a map behind a reader/writer spinlock, so
// lookups from different goroutines rarely touch the same cache line.
type registry struct {
	shards []shard
	mask   uint64
}

type shard struct {
	mu      spinlock.RWMutex
	threads map[uint64]*Thread
	_       cpu.CacheLinePad
}

func newRegistry(numShards int) *registry {
	if numShards < 1 {
		numShards = 1
	}
	numShards = pmath.CeilToPowerOf2(numShards)
	r := &registry{
		shards: make([]shard, numShards),
		mask:   uint64(numShards - 1),
	}
	for i := range r.shards {
		r.shards[i].threads = make(map[uint64]*Thread)
	}
	return r
}

func (r *registry) shard(goid uint64) *shard {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], goid)
	return &r.shards[xxhash3.Hash(key[:])&r.mask]
}

func (r *registry) load(goid uint64) (*Thread, bool) {
	s := r.shard(goid)
	s.mu.RLock()
	t, ok := s.threads[goid]
	s.mu.RUnlock()
	return t, ok
}

// loadOrStore returns the thread already attached for goid, or stores the one
// built by create.
func (r *registry) loadOrStore(goid uint64, create func() *Thread) (t *Thread, loaded bool) {
	s := r.shard(goid)
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.threads[goid]; ok {
		return t, true
	}
	t = create()
	s.threads[goid] = t
	return t, false
}

// remove deletes t if it is still registered under goid. Exactly one caller
// observes true for a given registration.
func (r *registry) remove(goid uint64, t *Thread) bool {
	s := r.shard(goid)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.threads[goid] != t {
		return false
	}
	delete(s.threads, goid)
	return true
}

func (r *registry) len() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		n += len(s.threads)
		s.mu.RUnlock()
	}
	return n
}
