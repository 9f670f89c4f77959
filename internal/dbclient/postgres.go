package dbclient

import (
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"ppdmloader/internal/domain"
)

// buildPostgresDSN constructs a lib/pq key/value connection string.
// A configured schema becomes the search_path so unqualified PPDM table
// names resolve inside it.
func buildPostgresDSN(conn *domain.DatabaseConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + pqQuote(conn.Host),
		fmt.Sprintf("port=%d", port),
		"user=" + pqQuote(conn.Username),
		"password=" + pqQuote(password),
		"dbname=" + pqQuote(conn.Database),
		"sslmode=" + pqQuote(sslMode),
		"application_name=ppdmloader",
	}
	if conn.Schema != "" {
		parts = append(parts, "search_path="+pqQuote(conn.Schema))
	}
	return strings.Join(parts, " ")
}

// pqQuote quotes a value when lib/pq would otherwise split or misread it.
func pqQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
