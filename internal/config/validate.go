package config

import (
	"errors"
	"fmt"
)

// Validate checks cross-field constraints that tag-level validation cannot
// express. It collects all problems instead of stopping at the first.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 32 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Errorf("database.max_conns %d < min_conns %d",
			c.Database.MaxConns, c.Database.MinConns))
	}

	if c.Scheduler.TopicPoolRatio < 0 || c.Scheduler.TopicPoolRatio > 1 {
		errs = append(errs, fmt.Errorf("scheduler.topic_pool_ratio %v must be in [0,1]",
			c.Scheduler.TopicPoolRatio))
	}

	if c.Queue.Concurrency < 1 {
		errs = append(errs, errors.New("queue.concurrency must be at least 1"))
	}

	return errors.Join(errs...)
}
