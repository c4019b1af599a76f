package engine

import (
	"fmt"
	"sync/atomic"
)

// correlationSeq is a process-wide monotonic counter used to mint
// correlation ids; pipelines never share attempts so collisions across
// pipelines are harmless, but a shared counter keeps ids globally sortable
// for log correlation.
var correlationSeq uint64

// nextCorrelationID mints a new correlation id for pipelineID, scoping the
// counter value with the pipeline so ids remain readable in logs.
func nextCorrelationID(pipelineID string) string {
	n := atomic.AddUint64(&correlationSeq, 1)
	return fmt.Sprintf("%s-%d", pipelineID, n)
}
