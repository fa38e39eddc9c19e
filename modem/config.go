package modem

import (
	"log/slog"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// DefaultSettleDelay is how long the channel waits after each write before
// the modem is expected to have its reply ready.
const DefaultSettleDelay = 100 * time.Millisecond

// Config holds the settings a Modem keeps for its whole life, across
// reconnects. Build one with NewConfigBuilder.
type Config struct {
	// Dialer opens the transport. Port, baud rate and read timeout live here.
	Dialer Dialer
	// SettleDelay is slept after every write.
	SettleDelay time.Duration
	// Charset encodes commands and decodes response lines. Single byte only.
	Charset *charmap.Charmap
	// Probe sends the test form of a command (AT+XXX=?) before the command
	// itself and fails early when the firmware does not know it.
	Probe bool
	// Logger receives the command transcript at debug level.
	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.SettleDelay == 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.Charset == nil {
		c.Charset = charmap.ISO8859_1
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithSettleDelay(d time.Duration) *ConfigBuilder {
	b.config.SettleDelay = d
	return b
}

func (b *ConfigBuilder) WithCharset(cs *charmap.Charmap) *ConfigBuilder {
	b.config.Charset = cs
	return b
}

func (b *ConfigBuilder) WithProbe(probe bool) *ConfigBuilder {
	b.config.Probe = probe
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
