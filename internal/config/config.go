package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Entsoe   EntsoeConfig   `yaml:"entsoe"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

// StoreConfig is the part of Config needed by storage-only tools.
type StoreConfig struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `yaml:"host"               env:"ELEC_LCA_HOST"               env-required:"true"`
	Name            string        `yaml:"name"               env:"ELEC_LCA_DB_NAME"            env-required:"true"`
	User            string        `yaml:"user"               env:"ELEC_LCA_USER"               env-required:"true"`
	Password        string        `yaml:"password"           env:"ELEC_LCA_PASSWORD"`
	Port            int           `yaml:"port"               env:"ELEC_LCA_DB_PORT"            env-default:"5432"`
	SSLMode         string        `yaml:"sslmode"            env:"ELEC_LCA_DB_SSLMODE"         env-default:"disable"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"4"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// DSN builds a postgres:// connection URL from the individual parameters.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}

// EntsoeConfig holds settings for the ENTSO-E transparency platform client.
type EntsoeConfig struct {
	SecurityToken string        `yaml:"security_token" env:"ENTSOE_SECURITY_TOKEN" env-required:"true"`
	BaseURL       string        `yaml:"base_url"       env:"ENTSOE_BASE_URL"       env-default:"https://web-api.tp.entsoe.eu/api"`
	Timeout       time.Duration `yaml:"timeout"        env:"ENTSOE_TIMEOUT"        env-default:"30s"`
}

// PipelineConfig holds ingestion run settings.
type PipelineConfig struct {
	MinInterval        time.Duration `yaml:"min_interval"     env:"PIPELINE_MIN_INTERVAL"     env-default:"1s"`
	Timezone           string        `yaml:"timezone"         env:"PIPELINE_TIMEZONE"         env-default:"Europe/Brussels"`
	GenerationTypesRaw string        `yaml:"generation_types" env:"PIPELINE_GENERATION_TYPES"`
	MappingSource      string        `yaml:"mapping_source"   env:"PIPELINE_MAPPING_SOURCE"`
	RunTimeout         time.Duration `yaml:"run_timeout"      env:"PIPELINE_RUN_TIMEOUT"      env-default:"2h"`

	// Location is resolved from Timezone during validation.
	Location *time.Location `yaml:"-" env:"-"`
	// GenerationTypes is parsed from GenerationTypesRaw during validation.
	GenerationTypes []string `yaml:"-" env:"-"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ParseList splits a comma-separated list, trimming blanks and dropping
// empty items. An empty string returns a nil slice.
func ParseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (c DatabaseConfig) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Name)
}
