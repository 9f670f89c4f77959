package domain

// DatabaseDriver represents the type of database engine.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// DatabaseConnection holds the metadata for connecting to the destination store.
// The password is resolved separately through a SecretStore.
type DatabaseConnection struct {
	Driver DatabaseDriver `json:"driver" mapstructure:"driver"`
	// Host is a hostname, a file path for sqlite, or a full mongodb URI.
	Host string `json:"host" mapstructure:"host"`
	// Port 0 selects the driver default.
	Port     int    `json:"port" mapstructure:"port"`
	Database string `json:"database" mapstructure:"database"`
	// Schema is the postgres schema holding the PPDM tables; empty means current_schema().
	Schema   string `json:"schema" mapstructure:"schema"`
	Username string `json:"username" mapstructure:"username"`
	SSLMode  string `json:"sslMode" mapstructure:"sslmode"`
	// SecretKey is the key the password is looked up under in the SecretStore.
	SecretKey string `json:"secretKey" mapstructure:"secret_key"`
	// ExtraJSON holds driver-specific options (mongodb URI params).
	ExtraJSON string `json:"extraJson" mapstructure:"extra_json"`
}
