package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database for minimal containers
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if strings.TrimSpace(c.Entsoe.SecurityToken) == "" {
		return fmt.Errorf("entsoe.security_token must not be empty")
	}
	if c.Entsoe.Timeout <= 0 {
		return fmt.Errorf("entsoe.timeout must be > 0 (got %v)", c.Entsoe.Timeout)
	}

	if err := c.Pipeline.validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535 (got %d)", d.Port)
	}
	if d.MaxConns <= 0 {
		return fmt.Errorf("max_conns must be > 0 (got %d)", d.MaxConns)
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		return fmt.Errorf("min_conns must be in 0..max_conns (got %d)", d.MinConns)
	}
	return nil
}

func (p *PipelineConfig) validate() error {
	if p.MinInterval < 0 {
		return fmt.Errorf("min_interval must be >= 0 (got %v)", p.MinInterval)
	}
	if p.RunTimeout <= 0 {
		return fmt.Errorf("run_timeout must be > 0 (got %v)", p.RunTimeout)
	}

	tz := p.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	p.Location = loc

	p.GenerationTypes = ParseList(p.GenerationTypesRaw)

	return nil
}
