package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"i4.energy/across/simmodem/modem"
)

// smsRequest is the body of a send request, over HTTP or MQTT.
type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Bridge sends the SMS requests published on an MQTT topic. Requests are
// not retried; a failure is logged and the request dropped.
type Bridge struct {
	Logger *slog.Logger
	Worker *modem.Worker
	// Timeout bounds how long a request waits for the modem.
	Timeout time.Duration
}

func (b *Bridge) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var req smsRequest
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		b.Logger.Warn("Bad MQTT payload", "topic", msg.Topic(), "error", err)
		return
	}
	if req.To == "" || req.Message == "" {
		b.Logger.Warn("MQTT request missing 'to' or 'message'", "topic", msg.Topic())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.Timeout)
	defer cancel()

	err := b.Worker.Do(ctx, func(m *modem.Modem) error {
		_, err := m.SendSMS(req.To, req.Message)
		return err
	})
	if err != nil {
		b.Logger.Error("Failed to send SMS", "error", err, "to", req.To)
		return
	}
	b.Logger.Info("SMS sent successfully", "to", req.To, "message_length", len(req.Message))
}

// connectMQTT connects to the broker and subscribes the bridge to topic.
// The subscription is renewed on every reconnect.
func connectMQTT(config *Config, bridge *Bridge) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.MQTTBroker)
	opts.SetClientID(config.MQTTClientID)
	if config.MQTTUsername != "" {
		opts.SetUsername(config.MQTTUsername)
		opts.SetPassword(config.MQTTPassword)
	}
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		bridge.Logger.Warn("MQTT connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		bridge.Logger.Info("MQTT connected, subscribing", "topic", config.MQTTTopic)
		if token := c.Subscribe(config.MQTTTopic, 1, bridge.handleMessage); token.Wait() && token.Error() != nil {
			bridge.Logger.Error("MQTT subscribe failed", "topic", config.MQTTTopic, "error", token.Error())
		}
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", config.MQTTBroker, token.Error())
	}
	return client, nil
}
