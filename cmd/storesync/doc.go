// Command storesync runs the offline mutation replay daemon and inspects or
// manages its queue.
//
// Queue commands talk to a running daemon over its management API. When no
// daemon answers they open storage directly, so the queue can be inspected and
// drained from a shell without starting one.
package main
