package clickhouse

import (
	"github.com/MyCarrier-DevOps/pr-merge-sync/clickhousemigrator"
)

// migrations defines the three fixed tables §6 of the specification names:
// queue, running, and cached_tip. Unlike the teacher's slippy package (an
// operator-defined DAG of pipeline steps with dynamic columns), this schema
// is fixed, so there are exactly three migrations instead of an
// operator-extensible migration list. Each migration is a single statement
// because the native driver's Exec expects one statement per call.
var migrations = []clickhousemigrator.Migration{
	{
		Version:     1,
		Name:        "create_queue_table",
		Description: "queued, approved pull requests awaiting promotion",
		UpSQL: `
			CREATE TABLE IF NOT EXISTS queue (
				pipeline_id   String,
				entry_id      String,
				pr_id         String,
				head_commit   String,
				message       String,
				requester     String,
				priority      Int32,
				approved_at   DateTime64(3),
				version       UInt64
			) ENGINE = ReplacingMergeTree(version)
			ORDER BY (pipeline_id, entry_id)
		`,
		DownSQL: `DROP TABLE IF EXISTS queue`,
	},
	{
		Version:     2,
		Name:        "create_running_table",
		Description: "the at-most-one active attempt per pipeline",
		UpSQL: `
			CREATE TABLE IF NOT EXISTS running (
				pipeline_id     String,
				entry_id        String,
				pr_id           String,
				head_commit     String,
				message         String,
				requester       String,
				priority        Int32,
				approved_at     DateTime64(3),
				sub_state       String,
				staging_commit  String,
				ci_build        String,
				correlation_id  String,
				attempts        Int32,
				entered_at      DateTime64(3),
				deadline_at     DateTime64(3),
				deleted         UInt8 DEFAULT 0,
				version         UInt64
			) ENGINE = ReplacingMergeTree(version)
			ORDER BY pipeline_id
		`,
		DownSQL: `DROP TABLE IF EXISTS running`,
	},
	{
		Version:     3,
		Name:        "create_cached_tip_table",
		Description: "the engine's advisory copy of the default branch tip",
		UpSQL: `
			CREATE TABLE IF NOT EXISTS cached_tip (
				pipeline_id   String,
				commit        String,
				observed_at   DateTime64(3),
				version       UInt64
			) ENGINE = ReplacingMergeTree(version)
			ORDER BY pipeline_id
		`,
		DownSQL: `DROP TABLE IF EXISTS cached_tip`,
	},
}

var expectedTables = []string{"queue", "running", "cached_tip"}
