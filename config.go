package main

import (
	"flag"
	"os"
	"strconv"
	"time"

	"i4.energy/across/simmodem/modem"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB2")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the modem (e.g. 460800)
	BaudRate int
	// ReadTimeout bounds how long a read waits for the modem
	ReadTimeout time.Duration
	// SettleDelay is slept after every command written to the modem
	SettleDelay time.Duration
	// Probe sends the test form of each command before the command itself
	Probe bool
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// DBPath is the sqlite file of the SMS archive, empty disables the archive
	DBPath string
	// MQTTBroker is the broker URL (e.g. "tcp://localhost:1883"), empty disables MQTT
	MQTTBroker string
	// MQTTTopic receives {"to","message"} requests to send an SMS
	MQTTTopic string
	// MQTTClientID identifies the gateway to the broker
	MQTTClientID string
	// MQTTUsername and MQTTPassword authenticate with the broker if set
	MQTTUsername string
	MQTTPassword string
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB2"
		c.BaudRate = modem.DefaultBaudRate
		c.ReadTimeout = modem.DefaultReadTimeout
		c.SettleDelay = modem.DefaultSettleDelay
		c.LogLevel = "info"
		c.MQTTTopic = "simmodem/sms/send"
		c.MQTTClientID = "simmodem"
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if timeout := os.Getenv("READ_TIMEOUT"); timeout != "" {
			if d, err := time.ParseDuration(timeout); err == nil {
				c.ReadTimeout = d
			}
		}

		if delay := os.Getenv("SETTLE_DELAY"); delay != "" {
			if d, err := time.ParseDuration(delay); err == nil {
				c.SettleDelay = d
			}
		}

		if probe := os.Getenv("PROBE"); probe != "" {
			if p, err := strconv.ParseBool(probe); err == nil {
				c.Probe = p
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if path := os.Getenv("DB_PATH"); path != "" {
			c.DBPath = path
		}

		if broker := os.Getenv("MQTT_BROKER"); broker != "" {
			c.MQTTBroker = broker
		}

		if topic := os.Getenv("MQTT_TOPIC"); topic != "" {
			c.MQTTTopic = topic
		}

		if id := os.Getenv("MQTT_CLIENT_ID"); id != "" {
			c.MQTTClientID = id
		}

		if user := os.Getenv("MQTT_USERNAME"); user != "" {
			c.MQTTUsername = user
		}

		if pass := os.Getenv("MQTT_PASSWORD"); pass != "" {
			c.MQTTPassword = pass
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "read-timeout":
				if d, err := time.ParseDuration(f.Value.String()); err == nil {
					c.ReadTimeout = d
				}
			case "settle-delay":
				if d, err := time.ParseDuration(f.Value.String()); err == nil {
					c.SettleDelay = d
				}
			case "probe":
				if p, err := strconv.ParseBool(f.Value.String()); err == nil {
					c.Probe = p
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "db-path":
				c.DBPath = f.Value.String()
			case "mqtt-broker":
				c.MQTTBroker = f.Value.String()
			case "mqtt-topic":
				c.MQTTTopic = f.Value.String()
			case "mqtt-client-id":
				c.MQTTClientID = f.Value.String()
			}
		})
		return nil
	}
}
