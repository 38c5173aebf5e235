package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Auth.JWTSecret = strings.Repeat("s", 32)
	cfg.Database.MaxConns = 25
	cfg.Database.MinConns = 5
	cfg.Fanout.QueueSize = 1024
	cfg.Server.RatePerMinute = 300
	return cfg
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for short jwt_secret")
	}
	if !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("error should mention jwt_secret, got: %v", err)
	}
}

func TestValidateConnBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Database.MinConns = 50

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when min_conns > max_conns")
	}
}

func TestValidateFanoutQueue(t *testing.T) {
	cfg := validConfig()
	cfg.Fanout.QueueSize = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero fanout queue size")
	}
}
