package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			DSN:      "postgres://localhost/agora",
			MaxConns: 25,
			MinConns: 5,
		},
		Auth: AuthConfig{
			JWTSecret: strings.Repeat("s", 32),
			TokenTTL:  time.Hour,
		},
		Scheduler: SchedulerConfig{TopicPoolRatio: 0.5},
		Queue:     QueueConfig{Concurrency: 10},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"
	cfg.Server.Port = 0
	cfg.Scheduler.TopicPoolRatio = 1.5

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "jwt_secret")
	assert.Contains(t, msg, "port")
	assert.Contains(t, msg, "topic_pool_ratio")
}

func TestValidate_ConnBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Database.MaxConns = 2
	cfg.Database.MinConns = 5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_conns")
}
