package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"wmsbridge/config"
)

const connectPollInterval = 100 * time.Millisecond

type mqttSession struct {
	mu     sync.Mutex
	cfg    *config.BusConfig
	name   string
	addr   string
	client mqtt.Client
	subs   map[string]Handler
}

func newMQTTSession(cfg *config.BusConfig, name, addr string) *mqttSession {
	return &mqttSession{
		cfg:  cfg,
		name: name,
		addr: addr,
		subs: make(map[string]Handler),
	}
}

func (s *mqttSession) Connect(ctx context.Context) error {
	broker := fmt.Sprintf("tcp://%s:%d", s.addr, s.cfg.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("wmsbridge-" + s.name).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Second)

	client := mqtt.NewClient(opts)
	client.Connect()

	// Poll the connected flag rather than blocking on the token: the
	// session keeps retrying in the background, but the caller only waits
	// out the configured window.
	deadline := time.Now().Add(s.cfg.ConnectTimeout)
	for time.Now().Before(deadline) {
		if client.IsConnected() {
			s.mu.Lock()
			s.client = client
			s.mu.Unlock()
			return nil
		}
		select {
		case <-ctx.Done():
			client.Disconnect(0)
			return ctx.Err()
		case <-time.After(connectPollInterval):
		}
	}
	client.Disconnect(0)
	return ErrConnectTimeout
}

func (s *mqttSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil && s.client.IsConnected()
}

func (s *mqttSession) Subscribe(topic string, h Handler) error {
	s.mu.Lock()
	client := s.client
	s.subs[topic] = h
	s.mu.Unlock()

	if client == nil {
		return fmt.Errorf("mqtt not connected")
	}
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}
	return nil
}

func (s *mqttSession) Unsubscribe(topic string) error {
	s.mu.Lock()
	client := s.client
	delete(s.subs, topic)
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	token := client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

func (s *mqttSession) Publish(topic string, payload []byte) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return fmt.Errorf("mqtt not connected")
	}
	token := client.Publish(topic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

func (s *mqttSession) Close() {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.subs = make(map[string]Handler)
	s.mu.Unlock()

	if client != nil {
		client.Disconnect(250)
	}
}
