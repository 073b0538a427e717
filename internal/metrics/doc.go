// Package metrics provides lock-free counters and a latency histogram for
// goSignin observability.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically via [sync/atomic.AddUint64]. The sign-in latency histogram uses
// 8 fixed buckets (≤5ms … +Inf). Both are allocation-free on the write path.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation. Export formats
// (Prometheus, OTel) are the caller's concern and read Snapshot values.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import goSignin or any sibling package.
//   - Expose global metric registries.
package metrics
