package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"ppdmloader/internal/domain"
	"ppdmloader/internal/fetch"
)

// EnvPrefix prefixes every environment override, e.g. PPDMLOADER_DESTINATION_HOST.
const EnvPrefix = "PPDMLOADER"

// Config is the effective loader configuration.
type Config struct {
	Source      SourceConfig      `mapstructure:"source"`
	Download    DownloadConfig    `mapstructure:"download"`
	Destination DestinationConfig `mapstructure:"destination"`
	Schema      SchemaConfig      `mapstructure:"schema"`
	Reference   ReferenceConfig   `mapstructure:"reference"`
	State       StateConfig       `mapstructure:"state"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Watch       WatchConfig       `mapstructure:"watch"`
	Log         LogConfig         `mapstructure:"log"`

	v *viper.Viper
}

type SourceConfig struct {
	Surface    fetch.Dataset `mapstructure:"surface"`
	BottomHole fetch.Dataset `mapstructure:"bottom_hole"`
}

type DownloadConfig struct {
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DestinationConfig is the PPDM store. Password, when set, wins over the
// secret store lookup by SecretKey.
type DestinationConfig struct {
	domain.DatabaseConnection `mapstructure:",squash"`
	Password                  string `mapstructure:"password"`
}

type SchemaConfig struct {
	WellTable      string `mapstructure:"well_table"`
	FallbackLength int    `mapstructure:"fallback_length"`
}

// ReferenceConfig overrides the lookup tables; empty means the PPDM defaults.
type ReferenceConfig struct {
	Tables []domain.ReferenceTable `mapstructure:"tables"`
}

type StateConfig struct {
	Path string `mapstructure:"path"`
}

type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

type WatchConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Dir defaults to the download directory.
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key so env overrides apply even without a file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.surface.name", "surface")
	v.SetDefault("source.surface.url", "")
	v.SetDefault("source.surface.path", "")
	v.SetDefault("source.surface.archive", "WELLS_SHP.ZIP")
	v.SetDefault("source.surface.entry", "Wells.dbf")
	v.SetDefault("source.surface.format", "dbf_archive")

	v.SetDefault("source.bottom_hole.name", "bottom_hole")
	v.SetDefault("source.bottom_hole.url", "")
	v.SetDefault("source.bottom_hole.path", "")
	v.SetDefault("source.bottom_hole.archive", "DIRECTIONAL_BOTTOMHOLE_LOCATIONS_SHP.ZIP")
	v.SetDefault("source.bottom_hole.entry", "Directional_Bottomhole_Locations.dbf")
	v.SetDefault("source.bottom_hole.format", "dbf_archive")

	v.SetDefault("download.dir", "data")
	v.SetDefault("download.timeout", fetch.DefaultTimeout)

	v.SetDefault("destination.driver", string(domain.DatabaseDriverSQLite))
	v.SetDefault("destination.host", "ppdm.db")
	v.SetDefault("destination.port", 0)
	v.SetDefault("destination.database", "")
	v.SetDefault("destination.schema", "")
	v.SetDefault("destination.username", "")
	v.SetDefault("destination.sslmode", "")
	v.SetDefault("destination.secret_key", "")
	v.SetDefault("destination.extra_json", "")
	v.SetDefault("destination.password", "")

	v.SetDefault("schema.well_table", "WELL")
	v.SetDefault("schema.fallback_length", 4)

	v.SetDefault("state.path", "")
	v.SetDefault("schedule.cron", "@daily")
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads path, or $HOME/.ppdmloader.yaml when path is empty and the
// file exists, then applies PPDMLOADER_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, _ := os.UserHomeDir()
		v.AddConfigPath(home)
		v.SetConfigName(".ppdmloader")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fill derives values that depend on other keys.
func (c *Config) fill() {
	for _, ds := range []*fetch.Dataset{&c.Source.Surface, &c.Source.BottomHole} {
		if ds.URL == "" && ds.Path == "" {
			ds.Path = filepath.Join(c.Download.Dir, ds.Archive)
		}
	}
	// viper lower-cases map keys; PPDM column names are upper case.
	for i, t := range c.Reference.Tables {
		if len(t.Discriminators) == 0 {
			continue
		}
		upper := make(map[string]string, len(t.Discriminators))
		for col, val := range t.Discriminators {
			upper[strings.ToUpper(col)] = val
		}
		c.Reference.Tables[i].Discriminators = upper
	}
	if c.Watch.Dir == "" {
		c.Watch.Dir = c.Download.Dir
	}
	if c.State.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.State.Path = filepath.Join(home, ".ppdmloader", "state.db")
	}
}

// Validate rejects settings no run could succeed with.
func (c *Config) Validate() error {
	switch c.Destination.Driver {
	case domain.DatabaseDriverSQLite, domain.DatabaseDriverMySQL,
		domain.DatabaseDriverPostgres, domain.DatabaseDriverMongoDB:
	default:
		return fmt.Errorf("destination.driver: unsupported driver %q", c.Destination.Driver)
	}
	if c.Destination.Host == "" {
		return fmt.Errorf("destination.host is required")
	}
	if c.Schema.WellTable == "" {
		return fmt.Errorf("schema.well_table is required")
	}
	for _, t := range c.Reference.Tables {
		if t.Table == "" || t.KeyAttribute == "" {
			return fmt.Errorf("reference table for %q needs table and key", t.Kind)
		}
	}
	return nil
}

// ConfigFileUsed returns the file the configuration was read from, if any.
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Dump writes the effective settings as YAML with the password masked.
func (c *Config) Dump(w io.Writer) error {
	settings := map[string]any{}
	if c.v != nil {
		settings = c.v.AllSettings()
	}
	if dest, ok := settings["destination"].(map[string]any); ok {
		if pw, _ := dest["password"].(string); pw != "" {
			dest["password"] = "****"
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return errors.Wrap(err, "encode config")
	}
	return enc.Close()
}
