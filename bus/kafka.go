package bus

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"wmsbridge/config"
)

// kafkaSession adapts the shared-broker Kafka deployment to the per-robot
// Session interface. Robot topics are namespaced "<robot>.<topic>" with the
// leading slash stripped.
type kafkaSession struct {
	mu        sync.Mutex
	cfg       *config.BusConfig
	name      string
	writer    *kafkago.Writer
	readers   map[string]*kafkago.Reader
	cancels   map[string]context.CancelFunc
	connected bool
}

func newKafkaSession(cfg *config.BusConfig, name string) *kafkaSession {
	return &kafkaSession{
		cfg:     cfg,
		name:    name,
		readers: make(map[string]*kafkago.Reader),
		cancels: make(map[string]context.CancelFunc),
	}
}

func (s *kafkaSession) topicFor(topic string) string {
	return s.name + "." + strings.TrimPrefix(topic, "/")
}

func (s *kafkaSession) Connect(ctx context.Context) error {
	// Verify at least one broker is reachable within the connect window.
	var lastErr error
	deadline := time.Now().Add(s.cfg.ConnectTimeout)
	for time.Now().Before(deadline) {
		for _, broker := range s.cfg.Kafka.Brokers {
			dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
			conn, err := kafkago.DialContext(dialCtx, "tcp", broker)
			cancel()
			if err == nil {
				conn.Close()
				s.mu.Lock()
				s.writer = &kafkago.Writer{
					Addr:         kafkago.TCP(s.cfg.Kafka.Brokers...),
					Balancer:     &kafkago.LeastBytes{},
					RequiredAcks: kafkago.RequireOne,
				}
				s.connected = true
				s.mu.Unlock()
				return nil
			}
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectPollInterval):
		}
	}
	if lastErr != nil {
		log.Printf("bus: kafka dial %s: %v", s.name, lastErr)
	}
	return ErrConnectTimeout
}

func (s *kafkaSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *kafkaSession) Subscribe(topic string, h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: s.cfg.Kafka.Brokers,
		Topic:   s.topicFor(topic),
		GroupID: s.cfg.Kafka.GroupID,
	})
	ctx, cancel := context.WithCancel(context.Background())
	s.readers[topic] = reader
	s.cancels[topic] = cancel

	go func() {
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				return
			}
			h(topic, msg.Value)
		}
	}()
	return nil
}

func (s *kafkaSession) Unsubscribe(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.cancels[topic]; ok {
		cancel()
		delete(s.cancels, topic)
	}
	if reader, ok := s.readers[topic]; ok {
		reader.Close()
		delete(s.readers, topic)
	}
	return nil
}

func (s *kafkaSession) Publish(topic string, payload []byte) error {
	s.mu.Lock()
	writer := s.writer
	s.mu.Unlock()

	if writer == nil {
		return ErrConnectTimeout
	}
	return writer.WriteMessages(context.Background(), kafkago.Message{
		Topic: s.topicFor(topic),
		Value: payload,
	})
}

func (s *kafkaSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for topic, cancel := range s.cancels {
		cancel()
		delete(s.cancels, topic)
	}
	for topic, reader := range s.readers {
		reader.Close()
		delete(s.readers, topic)
	}
	if s.writer != nil {
		s.writer.Close()
		s.writer = nil
	}
	s.connected = false
}
