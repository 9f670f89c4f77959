package loader

import (
	"context"
	"database/sql/driver"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppdmloader/internal/dbclient"
	"ppdmloader/internal/fetch"
)

// newCSVLoader wires a loader reading one surface well from a CSV export,
// whose headers differ from the DBF field names, into a mocked MySQL store.
func newCSVLoader(t *testing.T) (*Loader, sqlmock.Sqlmock) {
	t.Helper()
	dir := t.TempDir()
	surface := filepath.Join(dir, "wells.csv")
	bottom := filepath.Join(dir, "bottomholes.csv")
	require.NoError(t, os.WriteFile(surface, []byte("api_number,Operator,Well_Name,field,Facil_Stat,Shape_Leng\n12345678,NOBLE,ALPHA 1,WATTENBERG,PR,12.5\n"), 0644))
	require.NoError(t, os.WriteFile(bottom, []byte("API,Operator,Well_Name,Lat,Long,MD\n"), 0644))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := Config{
		Surface: fetch.Dataset{Name: "surface", Path: surface, Format: "csv_file",
			Columns: map[string]string{"API_NUMBER": "API", "field": "Field_Name"}},
		BottomHole: fetch.Dataset{Name: "bottom_hole", Path: bottom, Format: "csv_file"},
	}
	l := New(cfg, fetch.New(dir, time.Second, nil), func(ctx context.Context) (dbclient.Connector, error) {
		return dbclient.NewSQLConnector("mysql", db), nil
	}, nil)
	return l, mock
}

func expectLengths(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`INFORMATION_SCHEMA.COLUMNS`).WithArgs("WELL").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "CHARACTER_MAXIMUM_LENGTH"}).
			AddRow("WELL_NAME", 66).AddRow("OPERATOR", 20).AddRow("ASSIGNED_FIELD", 20))
}

func expectInsert(mock sqlmock.Sqlmock, table, key string, keyValue any, args ...driver.Value) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM "+table+" WHERE "+key+" = ?")).
		WithArgs(keyValue).WillReturnRows(sqlmock.NewRows([]string{"1"}))
	exec := mock.ExpectExec(regexp.QuoteMeta("INSERT INTO " + table + " ("))
	if len(args) > 0 {
		exec.WithArgs(args...)
	}
	exec.WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func TestRun_ReferenceTablesBeforeWells(t *testing.T) {
	l, mock := newCSVLoader(t)

	expectLengths(mock)
	expectInsert(mock, "BUSINESS_ASSOCIATE", "BUSINESS_ASSOCIATE_ID", "NOBLE", "NOBLE", "NOBLE")
	expectInsert(mock, "FIELD", "FIELD_ID", "WATTENBERG", "WATTENBERG", "WATTENBERG")
	expectInsert(mock, "R_WELL_DATUM_TYPE", "WELL_DATUM_TYPE", "GR", "GR", "GR")
	expectInsert(mock, "R_WELL_STATUS", "STATUS", "PR", "STATUS", "PR", "PR")
	expectInsert(mock, "WELL", "UWI", "051234567800")
	mock.ExpectClose()

	res, err := l.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Inserted["WELL"])
	assert.Equal(t, 1, res.Stats.Inserted["R_WELL_STATUS"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_WellWriteFailureKeepsReferenceRows(t *testing.T) {
	l, mock := newCSVLoader(t)

	expectLengths(mock)
	expectInsert(mock, "BUSINESS_ASSOCIATE", "BUSINESS_ASSOCIATE_ID", "NOBLE")
	expectInsert(mock, "FIELD", "FIELD_ID", "WATTENBERG")
	expectInsert(mock, "R_WELL_DATUM_TYPE", "WELL_DATUM_TYPE", "GR")
	expectInsert(mock, "R_WELL_STATUS", "STATUS", "PR")
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM WELL`).WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec(`INSERT INTO WELL`).WillReturnError(assert.AnError)
	mock.ExpectRollback()
	mock.ExpectClose()

	res, err := l.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, res.Stats.Inserted["BUSINESS_ASSOCIATE"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_MetadataFailureIsNotFatal(t *testing.T) {
	l, mock := newCSVLoader(t)

	mock.ExpectQuery(`INFORMATION_SCHEMA.COLUMNS`).WillReturnError(assert.AnError)
	// Fallback length 4 cuts every required column.
	expectInsert(mock, "BUSINESS_ASSOCIATE", "BUSINESS_ASSOCIATE_ID", "NOBL")
	expectInsert(mock, "FIELD", "FIELD_ID", "WATT")
	expectInsert(mock, "R_WELL_DATUM_TYPE", "WELL_DATUM_TYPE", "GR")
	expectInsert(mock, "R_WELL_STATUS", "STATUS", "PR")
	expectInsert(mock, "WELL", "UWI", "051234567800")
	mock.ExpectClose()

	res, err := l.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Limits.Operator)
	assert.NoError(t, mock.ExpectationsWereMet())
}
