package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"i4.energy/across/simmodem/archive"
	"i4.energy/across/simmodem/modem"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB2", "Serial port to connect to the modem")
	flag.Int("baud-rate", modem.DefaultBaudRate, "Baud rate for serial communication")
	flag.Duration("read-timeout", modem.DefaultReadTimeout, "How long a read waits for the modem")
	flag.Duration("settle-delay", modem.DefaultSettleDelay, "Pause after every command written to the modem")
	flag.Bool("probe", false, "Send the test form of every command first")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("db-path", "", "SQLite file of the SMS archive (empty disables the archive)")
	flag.String("mqtt-broker", "", "MQTT broker URL (empty disables MQTT)")
	flag.String("mqtt-topic", "simmodem/sms/send", "MQTT topic to receive send requests on")
	flag.String("mqtt-client-id", "simmodem", "MQTT client ID")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	modemConfig, err := modem.NewConfigBuilder().
		WithDialer(modem.SerialDialer{
			PortName:    config.SerialPort,
			BaudRate:    config.BaudRate,
			ReadTimeout: config.ReadTimeout,
		}).
		WithSettleDelay(config.SettleDelay).
		WithProbe(config.Probe).
		WithLogger(logger.With("component", "modem")).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	m, err := modem.New(context.Background(), modemConfig)
	if err != nil {
		logger.Error("Failed to create modem", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting SIM modem gateway", "port", config.SerialPort, "baud_rate", config.BaudRate)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := modem.NewWorker(m)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := worker.Loop(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Modem worker stopped", "error", err)
		}
	}()

	var store *archive.Store
	if config.DBPath != "" {
		store, err = archive.Open(config.DBPath)
		if err != nil {
			logger.Error("Failed to open SMS archive", "error", err)
			os.Exit(1)
		}
		logger.Info("SMS archive opened", "path", config.DBPath)
	}

	var mqttClient mqtt.Client
	if config.MQTTBroker != "" {
		bridge := &Bridge{
			Logger:  logger.With("component", "mqtt"),
			Worker:  worker,
			Timeout: 2 * time.Minute,
		}
		mqttClient, err = connectMQTT(config, bridge)
		if err != nil {
			logger.Error("Failed to connect to MQTT broker", "error", err)
			os.Exit(1)
		}
	}

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:  logger.With("component", "server"),
			Worker:  worker,
			Archive: store,
		},
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	if mqttClient != nil {
		logger.Info("Disconnecting from MQTT broker")
		mqttClient.Disconnect(500)
	}

	// The modem must not be closed while a job is running.
	cancel()
	<-loopDone

	logger.Info("Closing modem connection")
	if err := m.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
	}

	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close SMS archive", "error", err)
		}
	}
}
