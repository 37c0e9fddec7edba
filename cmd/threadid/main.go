// Command threadid exercises the thread id allocator: it checks live id
// packing, churns threads through worker pools and serves allocator metrics.
package main

func main() {
	execute()
}
