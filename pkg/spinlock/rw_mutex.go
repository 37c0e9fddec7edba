package spinlock

import (
	"runtime"
	"sync/atomic"
)

// An RWMutex is a reader/writer spin lock. Readers never block each other;
// a writer waits for all readers to drain. The zero value is unlocked.
type RWMutex struct {
	state uint32
}

const (
	rwmutexUnlocked   = 0
	rwmutexWrite      = 1 << 0 // bit 0 flags write mode
	rwmutexReadOffset = 1 << 1 // bits 1-31 count readers
)

// RLock locks rw for reading.
func (rw *RWMutex) RLock() {
	state := atomic.AddUint32(&rw.state, rwmutexReadOffset)
	if state&rwmutexWrite == 0 {
		return
	}
	// A writer holds the lock; our reader count stays registered so the
	// writer's Unlock hands the lock straight to us.
	for atomic.LoadUint32(&rw.state)&rwmutexWrite != 0 {
		runtime.Gosched()
	}
}

// TryRLock tries to lock rw for reading without waiting.
func (rw *RWMutex) TryRLock() bool {
	state := atomic.AddUint32(&rw.state, rwmutexReadOffset)
	if state&rwmutexWrite == 0 {
		return true
	}
	atomic.AddUint32(&rw.state, ^uint32(rwmutexReadOffset-1))
	return false
}

// RUnlock undoes a single RLock call.
func (rw *RWMutex) RUnlock() {
	state := atomic.AddUint32(&rw.state, ^uint32(rwmutexReadOffset-1))
	if state>>1 == ^uint32(0)>>1 {
		panic("spinlock: RUnlock of unlocked RWMutex")
	}
}

// Lock locks rw for writing. It waits until there are no readers and no
// other writer.
func (rw *RWMutex) Lock() {
	backoff := 1
	for !atomic.CompareAndSwapUint32(&rw.state, rwmutexUnlocked, rwmutexWrite) {
		for i := 0; i < backoff; i++ {
			runtime.Gosched()
		}
		if backoff < maxBackoff {
			backoff <<= 1
		}
	}
}

// TryLock tries to lock rw for writing without waiting.
func (rw *RWMutex) TryLock() bool {
	return atomic.CompareAndSwapUint32(&rw.state, rwmutexUnlocked, rwmutexWrite)
}

// Unlock unlocks rw for writing.
func (rw *RWMutex) Unlock() {
	state := atomic.AddUint32(&rw.state, ^uint32(rwmutexWrite-1))
	if state&rwmutexWrite != 0 {
		panic("spinlock: Unlock of unlocked RWMutex")
	}
}
