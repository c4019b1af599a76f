package clickhouse

import (
	"sync/atomic"
	"time"
)

// versionSequence produces monotonically increasing values for the version
// column ReplacingMergeTree uses to pick the winning row on merge. Seeding
// from the current time keeps versions monotonic across process restarts
// without a round-trip to ClickHouse on every write.
type versionSequence struct {
	counter uint64
}

func newVersionSequence() *versionSequence {
	return &versionSequence{counter: uint64(time.Now().UnixNano())}
}

func (v *versionSequence) next() uint64 {
	return atomic.AddUint64(&v.counter, 1)
}
