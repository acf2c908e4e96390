package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Exchange.WSURL == "" {
		return errors.New("exchange.ws_url is required")
	}
	if len(c.Products) == 0 {
		return errors.New("products must list at least one product id")
	}
	if len(c.Channels) == 0 {
		return errors.New("channels must list at least one channel name")
	}
	if c.Cache.URL == "" {
		return errors.New("cache.url is required")
	}
	if c.Cache.Port == "" {
		return errors.New("cache.port is required")
	}
	switch c.Logging.Level {
	case "", "critical", "error", "warn", "info", "debug", "trace_l1", "trace_l2", "trace_l3":
	default:
		return fmt.Errorf("logging.level %q is not a recognized level", c.Logging.Level)
	}
	return nil
}
