package relay

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/metrics"
	"github.com/rankfeed/rankfeed/internal/realtime"
)

// Consumer applies relayed envelopes from other instances to the local hub.
type Consumer struct {
	consumer sarama.ConsumerGroup
	hub      realtime.Emitter
	topic    string
	origin   string
	log      *zap.SugaredLogger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewConsumer creates a relay consumer. origin is this instance's identity;
// envelopes it published itself are skipped since the hub already delivered
// them locally. The consumer group is unique per instance so every instance
// receives every envelope.
func NewConsumer(brokers []string, topic, origin string, hub realtime.Emitter, log *zap.SugaredLogger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	// Relayed broadcasts are only useful live; never replay history.
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	consumer, err := sarama.NewConsumerGroup(brokers, "rankfeed-relay-"+origin, config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		consumer: consumer,
		hub:      hub,
		topic:    topic,
		origin:   origin,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins consuming envelopes.
func (c *Consumer) Start() {
	go func() {
		for {
			if err := c.consumer.Consume(c.ctx, []string{c.topic}, c); err != nil {
				c.log.Errorw("relay consumer error", "error", err)
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()
	c.log.Infow("relay consumer started", "topic", c.topic)
}

// Setup is called at the beginning of a new session.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is called at the end of a session.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes envelopes from one partition.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		c.apply(msg.Value)
		session.MarkMessage(msg, "")
	}
	return nil
}

// apply delivers one relayed envelope to local subscribers.
func (c *Consumer) apply(value []byte) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		c.log.Errorw("unmarshaling relay envelope", "error", err)
		return
	}
	if env.Origin == c.origin {
		return
	}

	if env.Room == "" {
		c.hub.EmitAll(env.Event, env.Data)
	} else {
		c.hub.EmitRoom(env.Room, env.Event, env.Data)
	}
	metrics.RelayApplied.Inc()
}

// Stop cancels consumption and closes the group.
func (c *Consumer) Stop() {
	c.cancel()
	if err := c.consumer.Close(); err != nil {
		c.log.Errorw("closing relay consumer", "error", err)
	}
}
