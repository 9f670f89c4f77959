package dbclient

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppdmloader/internal/domain"
)

func newSQLiteStore(t *testing.T, ddl ...string) (Connector, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ppdm.db")

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	for _, stmt := range ddl {
		_, err := raw.Exec(stmt)
		require.NoError(t, err)
	}

	c, err := NewConnector(&domain.DatabaseConnection{Driver: domain.DatabaseDriverSQLite, Host: path}, "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, raw
}

func TestSQLite_ColumnLengths(t *testing.T) {
	c, _ := newSQLiteStore(t, `CREATE TABLE WELL (
		UWI VARCHAR(20) PRIMARY KEY,
		WELL_NAME varchar( 66 ),
		OPERATOR NVARCHAR(20),
		DEPTH_DATUM CHAR(4),
		REMARK TEXT,
		FINAL_TD REAL
	)`)

	lengths, err := c.ColumnLengths(context.Background(), "well")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"UWI": 20, "WELL_NAME": 66, "OPERATOR": 20, "DEPTH_DATUM": 4}, lengths)

	lengths, err = c.ColumnLengths(context.Background(), "NOT_A_TABLE")
	require.NoError(t, err)
	assert.Empty(t, lengths)
}

func TestSQLite_InsertIfAbsentIsIdempotent(t *testing.T) {
	c, raw := newSQLiteStore(t, `CREATE TABLE WELL (UWI VARCHAR(20) PRIMARY KEY, WELL_NAME VARCHAR(66), SPUD_DATE DATETIME, FINAL_TD REAL)`)
	ctx := context.Background()

	spud := time.Date(2019, 5, 2, 0, 0, 0, 0, time.UTC)
	b := Batch{
		Table:   "WELL",
		Key:     "UWI",
		Columns: []string{"UWI", "WELL_NAME", "SPUD_DATE", "FINAL_TD"},
		Rows: [][]any{
			{"051234567800", "ALPHA 1", spud, 7500.0},
			{"051234567801", "ALPHA 1 ST", nil, nil},
		},
	}

	n, err := c.InsertIfAbsent(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A second run with a changed name inserts nothing and keeps the first value.
	b.Rows[0][1] = "RENAMED"
	n, err = c.InsertIfAbsent(ctx, b)
	require.NoError(t, err)
	assert.Zero(t, n)

	var count int
	require.NoError(t, raw.QueryRow(`SELECT COUNT(*) FROM WELL`).Scan(&count))
	assert.Equal(t, 2, count)

	var name string
	require.NoError(t, raw.QueryRow(`SELECT WELL_NAME FROM WELL WHERE UWI = ?`, "051234567800").Scan(&name))
	assert.Equal(t, "ALPHA 1", name)
}
