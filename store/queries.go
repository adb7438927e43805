package store

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS epochs (
	subject VARCHAR,
	run_id VARCHAR,
	slot BIGINT,
	ts TIMESTAMP,
	value DOUBLE,
	missing BOOLEAN
);
CREATE TABLE IF NOT EXISTS files (
	subject VARCHAR,
	run_id VARCHAR,
	source_path VARCHAR,
	epoch_seconds DOUBLE,
	"rows" INTEGER,
	parse_failures INTEGER,
	filled_gaps INTEGER,
	ingested_at TIMESTAMP
);
`

const (
	insertEpochSQL  = `INSERT INTO epochs VALUES (?, ?, ?, ?, ?, ?)`
	insertFileSQL   = `INSERT INTO files VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	countEpochsSQL  = `SELECT COUNT(*) FROM epochs WHERE subject = ?`
	countMissingSQL = `SELECT COUNT(*) FROM epochs WHERE subject = ? AND missing`
	countFilesSQL   = `SELECT COUNT(*) FROM files`
)
