// Package relay distributes broadcast envelopes across service instances
// through Kafka, so a room event originating on one instance reaches
// subscribers connected to every other instance.
package relay

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/metrics"
)

// Envelope is one broadcast carried on the relay topic. An empty Room
// addresses every connection on the receiving instance.
type Envelope struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room,omitempty"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// Producer publishes broadcast envelopes to the relay topic.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.SugaredLogger
	enabled  bool
}

// NewProducer creates a relay producer. An empty broker list, or a broker
// connection failure, yields a disabled producer: the service then runs
// single-instance with local-only delivery.
func NewProducer(brokers []string, topic string, log *zap.SugaredLogger) (*Producer, error) {
	if len(brokers) == 0 {
		log.Infow("relay disabled, no kafka brokers configured")
		return &Producer{enabled: false, log: log}, nil
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		log.Warnw("relay producer not available, running local-only", "error", err)
		return &Producer{enabled: false, log: log}, nil
	}

	log.Infow("relay producer connected", "topic", topic)
	return &Producer{producer: producer, topic: topic, log: log, enabled: true}, nil
}

// Publish sends one envelope. Delivery failures are logged and swallowed;
// cross-instance fanout is best-effort and must never fail the update that
// triggered it.
func (p *Producer) Publish(env Envelope) {
	if !p.enabled {
		return
	}

	data, err := json.Marshal(env)
	if err != nil {
		p.log.Errorw("marshaling relay envelope", "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(env.Room),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		p.log.Errorw("publishing relay envelope", "error", err)
		return
	}
	metrics.RelayPublished.Inc()
}

// IsEnabled reports whether the relay is active.
func (p *Producer) IsEnabled() bool {
	return p.enabled
}

// Close closes the underlying producer.
func (p *Producer) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
