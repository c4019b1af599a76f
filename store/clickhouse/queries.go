package clickhouse

// All reads go through FINAL so ReplacingMergeTree's background merges never
// surface stale duplicate rows to callers; writes rely on a monotonic version
// column since ClickHouse has no transactional upsert.

const selectQueueSQL = `
	SELECT entry_id, pr_id, head_commit, message, requester, priority, approved_at
	FROM queue FINAL
	WHERE pipeline_id = ?
	ORDER BY priority DESC, approved_at ASC, entry_id ASC
`

const insertQueueRowSQL = `
	INSERT INTO queue (pipeline_id, entry_id, pr_id, head_commit, message, requester, priority, approved_at, version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const deleteQueueRowSQL = `
	ALTER TABLE queue DELETE WHERE pipeline_id = ? AND pr_id = ?
`

const selectRunningSQL = `
	SELECT entry_id, pr_id, head_commit, message, requester, priority, approved_at,
	       sub_state, staging_commit, ci_build, correlation_id, attempts, entered_at, deadline_at
	FROM running FINAL
	WHERE pipeline_id = ? AND deleted = 0
`

const upsertRunningRowSQL = `
	INSERT INTO running (
		pipeline_id, entry_id, pr_id, head_commit, message, requester, priority, approved_at,
		sub_state, staging_commit, ci_build, correlation_id, attempts, entered_at, deadline_at,
		deleted, version
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
`

// insertRunningTombstoneSQL inserts a tombstone rather than mutating in place: since
// running is ORDER BY pipeline_id, a later-versioned row with deleted=1 wins
// the ReplacingMergeTree collapse without needing a heavyweight ALTER mutation.
const insertRunningTombstoneSQL = `
	INSERT INTO running (
		pipeline_id, entry_id, pr_id, head_commit, message, requester, priority, approved_at,
		sub_state, staging_commit, ci_build, correlation_id, attempts, entered_at, deadline_at,
		deleted, version
	)
	VALUES (?, '', '', '', '', '', 0, now64(), '', '', '', '', 0, now64(), now64(), 1, ?)
`

const selectCachedTipSQL = `
	SELECT commit, observed_at
	FROM cached_tip FINAL
	WHERE pipeline_id = ?
`

const upsertCachedTipSQL = `
	INSERT INTO cached_tip (pipeline_id, commit, observed_at, version)
	VALUES (?, ?, ?, ?)
`

const selectDistinctPipelinesSQL = `
	SELECT DISTINCT pipeline_id FROM (
		SELECT pipeline_id FROM queue FINAL
		UNION ALL
		SELECT pipeline_id FROM running FINAL WHERE deleted = 0
		UNION ALL
		SELECT pipeline_id FROM cached_tip FINAL
	)
`
