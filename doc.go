// Package prmergesync implements the "Not Rocket Science Rule" merge queue
// engine: a per-repository FIFO queue of approved pull requests, a
// single-running-slot state machine, and the worker contracts (UI, VCS, CI)
// that drive it.
//
// # Package layout
//
//   - engine            - the pipeline state machine, queue, and event/command contract
//   - store             - the persistence interface the engine relies on for crash recovery
//   - store/memory      - in-memory Store for tests
//   - store/clickhouse  - ClickHouse-backed Store
//   - adapters/githubui - GitHub App-backed UI worker
//   - adapters/gitvcs    - go-git-backed VCS worker
//   - adapters/httpci    - generic REST CI worker with retry
//   - bus/kafka         - Kafka-backed event/command transport
//   - secrets/vault     - Vault-backed secret resolution for config
//   - tracing           - OpenTelemetry span helpers
//   - internal/httpapi  - webhook ingress and health endpoint
//   - config            - TOML configuration loading
//   - logger            - structured logging interfaces and implementations
//   - cmd/pipeline-engine - the operator CLI entrypoint
package prmergesync

// Version is set at build time via ldflags or can be determined from module info.
var Version = "dev"
