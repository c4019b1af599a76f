package clickhouse

import (
	"context"
	"database/sql"
	"testing"
	"time"

	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/pr-merge-sync/clickhouse/clickhousetest"
	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
)

func newTestStore(conn chdriver.Conn) *Store {
	return NewFromConn(conn, nil)
}

func TestEnqueueExecutesInsert(t *testing.T) {
	var gotQuery string
	var gotArgs []any
	conn := &clickhousetest.MockConn{
		ExecFunc: func(ctx context.Context, query string, args ...any) error {
			gotQuery = query
			gotArgs = args
			return nil
		},
	}
	s := newTestStore(conn)

	entry := engine.Entry{ID: "1", PRID: "pr-1", HeadCommit: "abc", Message: "msg", Requester: "octocat", Priority: 5, ApprovedAt: time.Unix(100, 0)}
	err := s.Enqueue(context.Background(), "widgets", entry)

	require.NoError(t, err)
	assert.Equal(t, insertQueueRowSQL, gotQuery)
	require.Len(t, gotArgs, 9)
	assert.Equal(t, "widgets", gotArgs[0])
	assert.Equal(t, "pr-1", gotArgs[2])
}

func TestRemoveFromQueueExecutesDelete(t *testing.T) {
	var gotQuery string
	conn := &clickhousetest.MockConn{
		ExecFunc: func(ctx context.Context, query string, args ...any) error {
			gotQuery = query
			return nil
		},
	}
	s := newTestStore(conn)

	err := s.RemoveFromQueue(context.Background(), "widgets", "pr-1")
	require.NoError(t, err)
	assert.Equal(t, deleteQueueRowSQL, gotQuery)
}

func entryRows(entries []engine.Entry) *clickhousetest.MockRows {
	idx := -1
	return &clickhousetest.MockRows{
		NextFunc: func() bool {
			idx++
			return idx < len(entries)
		},
		ScanFunc: func(dest ...any) error {
			e := entries[idx]
			*dest[0].(*string) = e.ID
			*dest[1].(*string) = e.PRID
			*dest[2].(*string) = e.HeadCommit
			*dest[3].(*string) = e.Message
			*dest[4].(*string) = e.Requester
			*dest[5].(*int32) = int32(e.Priority)
			*dest[6].(*time.Time) = e.ApprovedAt
			return nil
		},
	}
}

func TestListQueueReturnsOrderedEntries(t *testing.T) {
	want := []engine.Entry{
		{ID: "1", PRID: "pr-1", HeadCommit: "a", Priority: 2, ApprovedAt: time.Unix(1, 0)},
		{ID: "2", PRID: "pr-2", HeadCommit: "b", Priority: 1, ApprovedAt: time.Unix(2, 0)},
	}
	conn := &clickhousetest.MockConn{
		QueryFunc: func(ctx context.Context, query string, args ...any) (chdriver.Rows, error) {
			assert.Equal(t, selectQueueSQL, query)
			return entryRows(want), nil
		},
	}
	s := newTestStore(conn)

	got, err := s.ListQueue(context.Background(), "widgets")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestListQueueEmpty(t *testing.T) {
	conn := &clickhousetest.MockConn{
		QueryFunc: func(ctx context.Context, query string, args ...any) (chdriver.Rows, error) {
			return entryRows(nil), nil
		},
	}
	s := newTestStore(conn)

	got, err := s.ListQueue(context.Background(), "widgets")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDequeueReturnsHeadAndRemoves(t *testing.T) {
	want := []engine.Entry{
		{ID: "1", PRID: "pr-1", ApprovedAt: time.Unix(1, 0)},
		{ID: "2", PRID: "pr-2", ApprovedAt: time.Unix(2, 0)},
	}
	var removedPRID string
	conn := &clickhousetest.MockConn{
		QueryFunc: func(ctx context.Context, query string, args ...any) (chdriver.Rows, error) {
			return entryRows(want), nil
		},
		ExecFunc: func(ctx context.Context, query string, args ...any) error {
			removedPRID = args[1].(string)
			return nil
		},
	}
	s := newTestStore(conn)

	entry, ok, err := s.Dequeue(context.Background(), "widgets")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "pr-1", entry.PRID)
	assert.Equal(t, "pr-1", removedPRID)
}

func TestDequeueOnEmptyQueueReturnsFalse(t *testing.T) {
	conn := &clickhousetest.MockConn{
		QueryFunc: func(ctx context.Context, query string, args ...any) (chdriver.Rows, error) {
			return entryRows(nil), nil
		},
	}
	s := newTestStore(conn)

	_, ok, err := s.Dequeue(context.Background(), "widgets")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetRunningWithSlotUpserts(t *testing.T) {
	var gotQuery string
	conn := &clickhousetest.MockConn{
		ExecFunc: func(ctx context.Context, query string, args ...any) error {
			gotQuery = query
			return nil
		},
	}
	s := newTestStore(conn)

	slot := &engine.RunningSlot{
		Entry:         engine.Entry{ID: "1", PRID: "pr-1"},
		SubState:      engine.SubStateWaitingOnCI,
		CorrelationID: "corr-1",
	}
	err := s.SetRunning(context.Background(), "widgets", slot)
	require.NoError(t, err)
	assert.Equal(t, upsertRunningRowSQL, gotQuery)
}

func TestSetRunningWithNilSlotInsertsTombstone(t *testing.T) {
	var gotQuery string
	conn := &clickhousetest.MockConn{
		ExecFunc: func(ctx context.Context, query string, args ...any) error {
			gotQuery = query
			return nil
		},
	}
	s := newTestStore(conn)

	err := s.SetRunning(context.Background(), "widgets", nil)
	require.NoError(t, err)
	assert.Equal(t, insertRunningTombstoneSQL, gotQuery)
}

func TestGetRunningFound(t *testing.T) {
	conn := &clickhousetest.MockConn{
		QueryRowFunc: func(ctx context.Context, query string, args ...any) chdriver.Row {
			return &clickhousetest.MockRow{
				ScanFunc: func(dest ...any) error {
					*dest[0].(*string) = "1"
					*dest[1].(*string) = "pr-1"
					*dest[2].(*string) = "headsha"
					*dest[3].(*string) = "msg"
					*dest[4].(*string) = "octocat"
					*dest[5].(*int32) = 1
					*dest[6].(*time.Time) = time.Unix(1, 0)
					*dest[7].(*string) = string(engine.SubStateWaitingOnCI)
					*dest[8].(*string) = "staging1"
					*dest[9].(*string) = "build1"
					*dest[10].(*string) = "corr-1"
					*dest[11].(*int32) = 2
					*dest[12].(*time.Time) = time.Unix(2, 0)
					*dest[13].(*time.Time) = time.Unix(3, 0)
					return nil
				},
			}
		},
	}
	s := newTestStore(conn)

	slot, err := s.GetRunning(context.Background(), "widgets")
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, engine.SubStateWaitingOnCI, slot.SubState)
	assert.Equal(t, "corr-1", slot.CorrelationID)
	assert.Equal(t, 2, slot.Attempts)
}

func TestGetRunningNotFound(t *testing.T) {
	conn := &clickhousetest.MockConn{
		QueryRowFunc: func(ctx context.Context, query string, args ...any) chdriver.Row {
			return &clickhousetest.MockRow{ScanErr: sql.ErrNoRows}
		},
	}
	s := newTestStore(conn)

	slot, err := s.GetRunning(context.Background(), "widgets")
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestSaveAndLoadCachedTip(t *testing.T) {
	var gotArgs []any
	conn := &clickhousetest.MockConn{
		ExecFunc: func(ctx context.Context, query string, args ...any) error {
			gotArgs = args
			return nil
		},
		QueryRowFunc: func(ctx context.Context, query string, args ...any) chdriver.Row {
			return &clickhousetest.MockRow{
				ScanFunc: func(dest ...any) error {
					*dest[0].(*string) = "tip123"
					*dest[1].(*time.Time) = time.Unix(42, 0)
					return nil
				},
			}
		},
	}
	s := newTestStore(conn)

	err := s.SaveCachedTip(context.Background(), "widgets", engine.CachedTip{Commit: "tip123", ObservedAt: time.Unix(42, 0)})
	require.NoError(t, err)
	assert.Equal(t, "tip123", gotArgs[1])

	tip, ok, err := s.LoadCachedTip(context.Background(), "widgets")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tip123", tip.Commit)
}

func TestLoadCachedTipNotFound(t *testing.T) {
	conn := &clickhousetest.MockConn{
		QueryRowFunc: func(ctx context.Context, query string, args ...any) chdriver.Row {
			return &clickhousetest.MockRow{ScanErr: sql.ErrNoRows}
		},
	}
	s := newTestStore(conn)

	_, ok, err := s.LoadCachedTip(context.Background(), "widgets")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadAllPipelinesAggregatesPerPipelineState(t *testing.T) {
	conn := &clickhousetest.MockConn{
		QueryFunc: func(ctx context.Context, query string, args ...any) (chdriver.Rows, error) {
			switch query {
			case selectDistinctPipelinesSQL:
				idx := -1
				ids := []string{"widgets", "gadgets"}
				return &clickhousetest.MockRows{
					NextFunc: func() bool { idx++; return idx < len(ids) },
					ScanFunc: func(dest ...any) error {
						*dest[0].(*string) = ids[idx]
						return nil
					},
				}, nil
			case selectQueueSQL:
				pipelineID := args[0].(string)
				if pipelineID == "widgets" {
					return entryRows([]engine.Entry{{ID: "1", PRID: "pr-1"}}), nil
				}
				return entryRows(nil), nil
			default:
				t.Fatalf("unexpected query: %s", query)
				return nil, nil
			}
		},
		QueryRowFunc: func(ctx context.Context, query string, args ...any) chdriver.Row {
			switch query {
			case selectRunningSQL:
				return &clickhousetest.MockRow{ScanErr: sql.ErrNoRows}
			case selectCachedTipSQL:
				return &clickhousetest.MockRow{ScanErr: sql.ErrNoRows}
			default:
				t.Fatalf("unexpected query row: %s", query)
				return nil
			}
		},
	}
	s := newTestStore(conn)

	states, err := s.LoadAllPipelines(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Len(t, states["widgets"].Queue, 1)
	assert.Empty(t, states["gadgets"].Queue)
	assert.Nil(t, states["widgets"].Running)
	assert.Nil(t, states["widgets"].CachedTip)
}

func TestCloseDelegatesToConn(t *testing.T) {
	conn := &clickhousetest.MockConn{}
	s := newTestStore(conn)
	require.NoError(t, s.Close())

	wantErr := assert.AnError
	conn.CloseErr = wantErr
	assert.ErrorIs(t, s.Close(), wantErr)
}
