package config

// Default values for optional configuration fields.
const (
	DefaultWSURL       = "wss://ws-feed.exchange.coinbase.com"
	DefaultRedisURL    = "127.0.0.1"
	DefaultRedisPort   = "6379"
	DefaultLogLevel    = "info"
	DefaultMaxSizeMB   = 1 // spec.md's 512KiB rotation threshold, rounded up to MB
	DefaultMaxBackups  = 5
	DefaultChannelName = "matches"
)

func (c *Config) applyDefaults() {
	if c.Exchange.WSURL == "" {
		c.Exchange.WSURL = DefaultWSURL
	}
	if c.Cache.URL == "" {
		c.Cache.URL = DefaultRedisURL
	}
	if c.Cache.Port == "" {
		c.Cache.Port = DefaultRedisPort
	}
	if len(c.Channels) == 0 {
		c.Channels = []string{DefaultChannelName}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultMaxBackups
	}
}
