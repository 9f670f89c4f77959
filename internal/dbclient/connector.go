package dbclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ppdmloader/internal/domain"
)

// Batch is a set of rows bound for one table. Each row holds one value per
// column, in Columns order; nil is written as NULL.
type Batch struct {
	Table   string   `json:"table"`
	Key     string   `json:"key"` // column whose presence means the row already exists
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// keyIndex returns the position of the key column in Columns.
func (b Batch) keyIndex() (int, error) {
	for i, c := range b.Columns {
		if c == b.Key {
			return i, nil
		}
	}
	return -1, fmt.Errorf("key column %s not in batch columns for %s", b.Key, b.Table)
}

// Connector abstracts the destination store.
type Connector interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// ColumnLengths returns the maximum character length of each bounded text
	// column of table, keyed by upper-case column name. A table the store
	// does not know yields an empty map.
	ColumnLengths(ctx context.Context, table string) (map[string]int, error)

	// InsertIfAbsent writes every row whose key is not already present and
	// returns how many rows were inserted. Existing rows are never touched.
	InsertIfAbsent(ctx context.Context, b Batch) (int, error)

	// Close releases the connection.
	Close() error
}

// NewConnector creates a Connector for the given database connection.
// The password must be provided separately (from SecretStore).
func NewConnector(conn *domain.DatabaseConnection, password string, logger *zap.Logger) (Connector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("dbclient")

	switch conn.Driver {
	case domain.DatabaseDriverSQLite:
		return newSQLiteConnector(conn)
	case domain.DatabaseDriverMySQL:
		return newSQLConnector("mysql", buildMySQLDSN(conn, password))
	case domain.DatabaseDriverPostgres:
		c, err := newSQLConnector("postgres", buildPostgresDSN(conn, password))
		if err != nil {
			return nil, err
		}
		c.schema = conn.Schema
		return c, nil
	case domain.DatabaseDriverMongoDB:
		return newMongoConnector(conn, password, logger)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver)
	}
}
