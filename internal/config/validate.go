package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Fanout.QueueSize <= 0 {
		return fmt.Errorf("fanout.queue_size must be > 0 (got %d)", c.Fanout.QueueSize)
	}

	if c.Server.RatePerMinute <= 0 {
		return fmt.Errorf("server.rate_per_minute must be > 0 (got %d)", c.Server.RatePerMinute)
	}

	return nil
}
