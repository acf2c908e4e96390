// Package config loads driftbook's YAML configuration file: the exchange
// endpoint, the subscribed products and channels, cache connection details,
// and logging settings.
package config

// Config is the root configuration document.
type Config struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Products []string       `yaml:"products"`
	Channels []string       `yaml:"channels"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ExchangeConfig identifies the WebSocket feed to connect to.
type ExchangeConfig struct {
	WSURL string `yaml:"ws_url"`
}

// CacheConfig points at the Redis instance driftbook publishes to.
// REDIS_URL/REDIS_PORT environment variables always override these fields,
// per spec.md §6 — see LoadAndValidate.
type CacheConfig struct {
	URL  string `yaml:"url"`
	Port string `yaml:"port"`
}

// LoggingConfig configures the logging facade.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Verbosity  int    `yaml:"verbosity"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}
