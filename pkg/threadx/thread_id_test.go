package threadx

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentThreadID(t *testing.T) {
	if !Supported {
		assert.Zero(t, CurrentThreadID())
		t.Skip("no OS thread ids on " + runtime.GOOS)
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	tid := CurrentThreadID()
	assert.NotZero(t, tid)
	assert.Equal(t, tid, CurrentThreadID())
}

func TestLockedThreadsDiffer(t *testing.T) {
	if !Supported {
		t.Skip("no OS thread ids on " + runtime.GOOS)
	}
	const n = 4
	var (
		wg      sync.WaitGroup
		ready   sync.WaitGroup
		release = make(chan struct{})
		ids     = make([]uint64, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		ready.Add(1)
		go func(i int) {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			ids[i] = CurrentThreadID()
			ready.Done()
			<-release
		}(i)
	}
	ready.Wait()
	close(release)
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "thread id %d shared by two locked goroutines", id)
		seen[id] = true
	}
}

func BenchmarkGetThreadID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		CurrentThreadID()
	}
}
