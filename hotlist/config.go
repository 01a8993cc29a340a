package hotlist

// Config configures the hotlist service.
type Config struct {
	// MaxTitleLen rejects absurdly long titles before any write.
	MaxTitleLen int

	// SessionLimit bounds RecentSessions when the caller passes no limit.
	SessionLimit int
}

func (c *Config) defaults() {
	if c.MaxTitleLen <= 0 {
		c.MaxTitleLen = 512
	}
	if c.SessionLimit <= 0 {
		c.SessionLimit = 10
	}
}

func defaultConfig() *Config {
	return &Config{
		MaxTitleLen:  512,
		SessionLimit: 10,
	}
}
