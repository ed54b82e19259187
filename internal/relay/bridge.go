package relay

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/realtime"
)

// Bridge implements realtime.Emitter by delivering locally through the hub
// and mirroring every emission onto the relay topic for other instances.
type Bridge struct {
	hub      realtime.Emitter
	producer *Producer
	origin   string
	log      *zap.SugaredLogger
}

// NewBridge wires a hub and producer under one instance identity.
func NewBridge(hub realtime.Emitter, producer *Producer, origin string, log *zap.SugaredLogger) *Bridge {
	return &Bridge{hub: hub, producer: producer, origin: origin, log: log}
}

// EmitRoom delivers to the local room and relays to other instances.
func (b *Bridge) EmitRoom(room, event string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		b.log.Errorw("marshaling room emission", "event", event, "error", err)
		return
	}
	b.hub.EmitRoom(room, event, json.RawMessage(raw))
	b.producer.Publish(Envelope{Origin: b.origin, Room: room, Event: event, Data: raw})
}

// EmitAll delivers to every local connection and relays to other instances.
func (b *Bridge) EmitAll(event string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		b.log.Errorw("marshaling broadcast emission", "event", event, "error", err)
		return
	}
	b.hub.EmitAll(event, json.RawMessage(raw))
	b.producer.Publish(Envelope{Origin: b.origin, Event: event, Data: raw})
}
