package dbclient

import (
	"strings"

	_ "modernc.org/sqlite"

	"ppdmloader/internal/domain"
)

// sqlitePragmas are applied to every connection. Foreign keys are on so a
// PPDM schema that declares them rejects wells whose reference rows are missing.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// newSQLiteConnector creates a connector for a PPDM database in a SQLite file.
func newSQLiteConnector(conn *domain.DatabaseConnection) (*sqlConnector, error) {
	return newSQLConnector("sqlite", sqliteDSN(conn.Host))
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqlitePragmas
}
