// Package bus provides the per-robot publish/subscribe session used to
// carry telemetry and commands between the bridge and a single robot.
package bus

import (
	"context"
	"errors"
	"fmt"

	"wmsbridge/config"
)

// Handler receives messages for a subscribed topic.
type Handler func(topic string, payload []byte)

// Session is one pub/sub connection to one robot.
type Session interface {
	// Connect establishes the session, waiting up to the configured
	// timeout for the connected flag. Timeout is reported as
	// ErrConnectTimeout and is recoverable, not fatal.
	Connect(ctx context.Context) error

	IsConnected() bool

	Subscribe(topic string, h Handler) error
	Unsubscribe(topic string) error

	Publish(topic string, payload []byte) error

	Close()
}

// ErrConnectTimeout is returned when a session does not come up within the
// configured connect timeout.
var ErrConnectTimeout = errors.New("bus: connect timeout")

// Dial creates a session for the named robot without connecting it.
// The mqtt backend dials the robot's own bridge at addr:port; the kafka
// backend uses the configured brokers with robot-prefixed topics.
func Dial(cfg *config.BusConfig, name, addr string) (Session, error) {
	switch cfg.Backend {
	case "mqtt", "":
		return newMQTTSession(cfg, name, addr), nil
	case "kafka":
		return newKafkaSession(cfg, name), nil
	default:
		return nil, fmt.Errorf("unknown bus backend: %s", cfg.Backend)
	}
}
