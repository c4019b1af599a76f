// Package clickhouse implements store.Store against ClickHouse, using the
// fixed three-table schema from the specification's external interfaces
// section rather than the teacher's operator-defined dynamic-column schema.
package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	ch "github.com/MyCarrier-DevOps/pr-merge-sync/clickhouse"
	"github.com/MyCarrier-DevOps/pr-merge-sync/clickhousemigrator"
	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	"github.com/MyCarrier-DevOps/pr-merge-sync/logger"
	"github.com/MyCarrier-DevOps/pr-merge-sync/store"
)

// Store implements store.Store against a ClickHouse connection. Writes use
// ReplacingMergeTree's version column for last-write-wins semantics; reads
// always query through FINAL so callers never observe stale duplicate rows.
type Store struct {
	conn chdriver.Conn
	log  logger.Logger
	seq  *versionSequence
}

// Options configures New.
type Options struct {
	// SkipMigrations, if true, assumes the schema already exists.
	SkipMigrations bool
	Logger         logger.Logger
}

// New opens a ClickHouse connection from config, runs pending migrations
// (unless skipped), and returns a ready Store.
func New(ctx context.Context, cfg *ch.ClickhouseConfig, opts Options) (*Store, error) {
	conn, err := ch.ClickhouseConnect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = &logger.NopLogger{}
	}

	if !opts.SkipMigrations {
		migrator, err := clickhousemigrator.NewMigrator(conn, opts.Logger,
			clickhousemigrator.WithMigrations(migrations),
			clickhousemigrator.WithDatabase(cfg.ChDatabase),
			clickhousemigrator.WithTablePrefix("pr_merge_sync"),
			clickhousemigrator.WithExpectedTables(expectedTables),
		)
		if err != nil {
			return nil, fmt.Errorf("init migrator: %w", err)
		}
		if err := migrator.CreateTables(ctx); err != nil {
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}

	return &Store{conn: conn, log: opts.Logger, seq: newVersionSequence()}, nil
}

// NewFromConn wraps an already-open connection, used by tests.
func NewFromConn(conn chdriver.Conn, log logger.Logger) *Store {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Store{conn: conn, log: log, seq: newVersionSequence()}
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Enqueue(ctx context.Context, pipelineID string, entry engine.Entry) error {
	q := insertQueueRowSQL
	return s.conn.Exec(ctx, q,
		pipelineID, entry.ID, entry.PRID, entry.HeadCommit, entry.Message,
		entry.Requester, int32(entry.Priority), entry.ApprovedAt, s.seq.next())
}

func (s *Store) ReplaceInQueue(ctx context.Context, pipelineID string, entry engine.Entry) error {
	return s.Enqueue(ctx, pipelineID, entry)
}

func (s *Store) RemoveFromQueue(ctx context.Context, pipelineID, prID string) error {
	return s.conn.Exec(ctx, deleteQueueRowSQL, pipelineID, prID)
}

func (s *Store) Dequeue(ctx context.Context, pipelineID string) (engine.Entry, bool, error) {
	entries, err := s.ListQueue(ctx, pipelineID)
	if err != nil {
		return engine.Entry{}, false, err
	}
	if len(entries) == 0 {
		return engine.Entry{}, false, nil
	}
	head := entries[0]
	if err := s.RemoveFromQueue(ctx, pipelineID, head.PRID); err != nil {
		return engine.Entry{}, false, err
	}
	return head, true, nil
}

func (s *Store) ListQueue(ctx context.Context, pipelineID string) ([]engine.Entry, error) {
	rows, err := s.conn.Query(ctx, selectQueueSQL, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	var out []engine.Entry
	for rows.Next() {
		var e engine.Entry
		var priority int32
		if err := rows.Scan(&e.ID, &e.PRID, &e.HeadCommit, &e.Message, &e.Requester, &priority, &e.ApprovedAt); err != nil {
			return nil, fmt.Errorf("scan queue row: %w", err)
		}
		e.Priority = int(priority)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) SetRunning(ctx context.Context, pipelineID string, slot *engine.RunningSlot) error {
	if slot == nil {
		return s.conn.Exec(ctx, insertRunningTombstoneSQL, pipelineID, s.seq.next())
	}
	return s.conn.Exec(ctx, upsertRunningRowSQL,
		pipelineID, slot.Entry.ID, slot.Entry.PRID, slot.Entry.HeadCommit, slot.Entry.Message,
		slot.Entry.Requester, int32(slot.Entry.Priority), slot.Entry.ApprovedAt,
		string(slot.SubState), slot.StagingCommit, slot.CIBuildHandle, slot.CorrelationID,
		int32(slot.Attempts), slot.EnteredStateAt, slot.DeadlineAt, s.seq.next())
}

func (s *Store) GetRunning(ctx context.Context, pipelineID string) (*engine.RunningSlot, error) {
	row := s.conn.QueryRow(ctx, selectRunningSQL, pipelineID)

	var slot engine.RunningSlot
	var priority, attempts int32
	var subState string
	err := row.Scan(
		&slot.Entry.ID, &slot.Entry.PRID, &slot.Entry.HeadCommit, &slot.Entry.Message,
		&slot.Entry.Requester, &priority, &slot.Entry.ApprovedAt,
		&subState, &slot.StagingCommit, &slot.CIBuildHandle, &slot.CorrelationID,
		&attempts, &slot.EnteredStateAt, &slot.DeadlineAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get running: %w", err)
	}
	slot.Entry.Priority = int(priority)
	slot.Attempts = int(attempts)
	slot.SubState = engine.SubState(subState)
	return &slot, nil
}

func (s *Store) SaveCachedTip(ctx context.Context, pipelineID string, tip engine.CachedTip) error {
	return s.conn.Exec(ctx, upsertCachedTipSQL, pipelineID, tip.Commit, tip.ObservedAt, s.seq.next())
}

func (s *Store) LoadCachedTip(ctx context.Context, pipelineID string) (engine.CachedTip, bool, error) {
	row := s.conn.QueryRow(ctx, selectCachedTipSQL, pipelineID)
	var tip engine.CachedTip
	if err := row.Scan(&tip.Commit, &tip.ObservedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.CachedTip{}, false, nil
		}
		return engine.CachedTip{}, false, fmt.Errorf("load cached tip: %w", err)
	}
	return tip, true, nil
}

// LoadAllPipelines satisfies store.Store's bulk startup read.
func (s *Store) LoadAllPipelines(ctx context.Context) (map[string]store.PipelineState, error) {
	rows, err := s.conn.Query(ctx, selectDistinctPipelinesSQL)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pipeline id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]store.PipelineState, len(ids))
	for _, id := range ids {
		q, err := s.ListQueue(ctx, id)
		if err != nil {
			return nil, err
		}
		running, err := s.GetRunning(ctx, id)
		if err != nil {
			return nil, err
		}
		var tip *engine.CachedTip
		if t, ok, err := s.LoadCachedTip(ctx, id); err != nil {
			return nil, err
		} else if ok {
			tip = &t
		}
		out[id] = store.PipelineState{Queue: q, Running: running, CachedTip: tip}
	}
	return out, nil
}
