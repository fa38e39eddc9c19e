package main

import (
	"flag"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config, err := LoadConfig(WithDefaults())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.BaudRate != 460800 {
			t.Errorf("expected baud rate 460800, got %d", config.BaudRate)
		}
		if config.ReadTimeout != 5*time.Second {
			t.Errorf("expected read timeout 5s, got %v", config.ReadTimeout)
		}
		if config.SettleDelay != 100*time.Millisecond {
			t.Errorf("expected settle delay 100ms, got %v", config.SettleDelay)
		}
		if config.DBPath != "" || config.MQTTBroker != "" {
			t.Error("archive and MQTT should be disabled by default")
		}
	})

	t.Run("Env overrides defaults", func(t *testing.T) {
		t.Setenv("SERIAL_PORT", "/dev/ttyACM0")
		t.Setenv("BAUD_RATE", "115200")
		t.Setenv("SETTLE_DELAY", "250ms")
		t.Setenv("PROBE", "true")
		t.Setenv("DB_PATH", "/var/lib/simmodem/sms.db")
		t.Setenv("READ_TIMEOUT", "not a duration")

		config, err := LoadConfig(WithDefaults(), WithEnv())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.SerialPort != "/dev/ttyACM0" || config.BaudRate != 115200 {
			t.Errorf("unexpected serial settings %s@%d", config.SerialPort, config.BaudRate)
		}
		if config.SettleDelay != 250*time.Millisecond {
			t.Errorf("expected settle delay 250ms, got %v", config.SettleDelay)
		}
		if !config.Probe {
			t.Error("expected probing on")
		}
		if config.DBPath != "/var/lib/simmodem/sms.db" {
			t.Errorf("unexpected db path %q", config.DBPath)
		}
		if config.ReadTimeout != 5*time.Second {
			t.Errorf("invalid duration should keep the default, got %v", config.ReadTimeout)
		}
	})

	t.Run("Flags override env", func(t *testing.T) {
		t.Setenv("BIND_ADDRESS", "127.0.0.1:9000")

		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		fs.String("bind-address", "", "")
		fs.String("mqtt-broker", "", "")
		fs.Bool("probe", false, "")
		if err := fs.Parse([]string{"-bind-address=:8081", "-mqtt-broker=tcp://broker:1883", "-probe"}); err != nil {
			t.Fatalf("unexpected parse error: %v", err)
		}

		config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(fs))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.BindAddress != ":8081" {
			t.Errorf("expected flag bind address, got %q", config.BindAddress)
		}
		if config.MQTTBroker != "tcp://broker:1883" {
			t.Errorf("unexpected broker %q", config.MQTTBroker)
		}
		if !config.Probe {
			t.Error("expected probing on")
		}
	})
}
