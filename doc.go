// Package threadid provides cheap identifiers for the running thread of
// execution, where a thread is a goroutine attached for the duration of its
// run routine.
//
// Three kinds of id are offered:
//
//   - StdID: the runtime's goroutine handle, compared by equality only.
//   - UniqueID: drawn once per thread from a process-wide counter and never
//     reused.
//   - LiveID: the smallest free slot of a domain's allocator, returned when
//     the thread detaches, so live ids stay densely packed and can index a
//     slice of per-thread state.
//
// A goroutine becomes a thread with Attach and stops being one with Detach;
// Go, GoNamed, GoLocked and Run do both around a function. The first request
// for an id computes and caches it in the Thread; later requests through the
// *Thread are plain field reads. The package-level functions locate the
// Thread through a goroutine-keyed registry: CurrentLiveID, CurrentUniqueID,
// CurrentDebugID and CurrentStdID.
//
//	threadid.Go(func(t *threadid.Thread) {
//		slot, err := t.LiveID()
//		...
//	}).Join()
package threadid
