package dbclient

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"ppdmloader/internal/domain"
)

// buildMySQLDSN constructs a MySQL DSN from a DatabaseConnection.
// Dates come back as time.Time and text is exchanged as utf8mb4 so
// operator names keep their accents.
func buildMySQLDSN(conn *domain.DatabaseConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.User = conn.Username
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(conn.Host, strconv.Itoa(port))
	cfg.DBName = conn.Database
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if conn.SSLMode == "require" {
		cfg.TLSConfig = "true"
	}
	return cfg.FormatDSN()
}
