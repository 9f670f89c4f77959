package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// sqlConnector is the shared implementation for MySQL, Postgres, and SQLite.
type sqlConnector struct {
	driverName string
	db         *sql.DB
	schema     string // postgres only; empty means current_schema()
}

// newSQLConnector creates a generic SQL connector.
func newSQLConnector(driverName, dsn string) (*sqlConnector, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driverName)
	}
	// One loader run holds at most one transaction at a time.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &sqlConnector{driverName: driverName, db: db}, nil
}

// NewSQLConnector wraps an already opened database. driverName selects the
// dialect: "postgres", "mysql" or "sqlite".
func NewSQLConnector(driverName string, db *sql.DB) Connector {
	return &sqlConnector{driverName: driverName, db: db}
}

func (c *sqlConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

// placeholder returns the bind parameter for the n-th argument (1-based).
func (c *sqlConnector) placeholder(n int) string {
	if c.driverName == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// ── Column metadata ────────────────────────────────────────

const postgresLengthsQuery = `SELECT UPPER(column_name), character_maximum_length
	FROM information_schema.columns
	WHERE UPPER(table_name) = UPPER($1)
	  AND table_schema = COALESCE(NULLIF($2, ''), current_schema())
	  AND character_maximum_length IS NOT NULL`

const mysqlLengthsQuery = `SELECT UPPER(COLUMN_NAME), CHARACTER_MAXIMUM_LENGTH
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE UPPER(TABLE_NAME) = UPPER(?)
	  AND TABLE_SCHEMA = DATABASE()
	  AND CHARACTER_MAXIMUM_LENGTH IS NOT NULL`

// sqliteLengthPattern extracts n from declared types like VARCHAR(n),
// CHAR(n), NVARCHAR(n) and CHARACTER VARYING(n).
var sqliteLengthPattern = regexp.MustCompile(`(?i)CHAR[A-Z ]*\(\s*(\d+)\s*\)`)

func (c *sqlConnector) ColumnLengths(ctx context.Context, table string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch c.driverName {
	case "sqlite":
		return c.sqliteColumnLengths(ctx, table)
	case "postgres":
		return c.infoSchemaColumnLengths(ctx, postgresLengthsQuery, table, c.schema)
	default:
		return c.infoSchemaColumnLengths(ctx, mysqlLengthsQuery, table)
	}
}

// infoSchemaColumnLengths works for MySQL and Postgres via INFORMATION_SCHEMA.
func (c *sqlConnector) infoSchemaColumnLengths(ctx context.Context, query string, args ...any) (map[string]int, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query column metadata")
	}
	defer rows.Close()

	lengths := map[string]int{}
	for rows.Next() {
		var name string
		var length sql.NullInt64
		if err := rows.Scan(&name, &length); err != nil {
			return nil, errors.Wrap(err, "scan column metadata")
		}
		if length.Valid && length.Int64 > 0 {
			lengths[name] = int(length.Int64)
		}
	}
	return lengths, errors.Wrap(rows.Err(), "iterate column metadata")
}

// sqliteColumnLengths uses PRAGMA table_info and parses declared lengths.
func (c *sqlConnector) sqliteColumnLengths(ctx context.Context, table string) (map[string]int, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info('%s')", strings.ReplaceAll(table, "'", "''")))
	if err != nil {
		return nil, errors.Wrap(err, "query column metadata")
	}
	defer rows.Close()

	lengths := map[string]int{}
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, errors.Wrap(err, "scan column metadata")
		}
		m := sqliteLengthPattern.FindStringSubmatch(colType)
		if m == nil {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(m[1], "%d", &n); err == nil && n > 0 {
			lengths[strings.ToUpper(name)] = n
		}
	}
	return lengths, errors.Wrap(rows.Err(), "iterate column metadata")
}

// ── Insert-if-absent ───────────────────────────────────────

// InsertIfAbsent runs the whole batch in one transaction: for each row the
// key is looked up and the row is inserted only when no match exists.
func (c *sqlConnector) InsertIfAbsent(ctx context.Context, b Batch) (int, error) {
	if len(b.Rows) == 0 {
		return 0, nil
	}
	keyIdx, err := b.keyIndex()
	if err != nil {
		return 0, err
	}

	existsQuery := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s", b.Table, b.Key, c.placeholder(1))
	marks := make([]string, len(b.Columns))
	for i := range marks {
		marks[i] = c.placeholder(i + 1)
	}
	insertQuery := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.Table, strings.Join(b.Columns, ", "), strings.Join(marks, ", "))

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	inserted := 0
	for _, row := range b.Rows {
		if len(row) != len(b.Columns) {
			return 0, fmt.Errorf("%s: row has %d values for %d columns", b.Table, len(row), len(b.Columns))
		}
		var one int
		err := tx.QueryRowContext(ctx, existsQuery, row[keyIdx]).Scan(&one)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, errors.Wrapf(err, "check %s %v", b.Table, row[keyIdx])
		}
		if _, err := tx.ExecContext(ctx, insertQuery, row...); err != nil {
			return 0, errors.Wrapf(err, "insert %s %v", b.Table, row[keyIdx])
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	return inserted, nil
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}
