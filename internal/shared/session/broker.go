package session

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
	EventProfileUpdated EventType = "profile_updated"
)

type Event struct {
	Type   EventType `json:"type"`
	UserID uuid.UUID `json:"user_id"`
	At     time.Time `json:"at"`
}

// Broker fans session changes out to per-user subscribers over an in-process
// watermill pub/sub with one topic per user.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	pubsub *gochannel.GoChannel
	buffer int
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 8
	}
	return &Broker{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: int64(buffer)}, watermill.NopLogger{}),
		buffer: buffer,
	}
}

func userTopic(userID uuid.UUID) string {
	return "session." + userID.String()
}

// Subscribe returns a channel of userID's events and a cancel func. The channel is
// closed once the subscription has shut down.
func (b *Broker) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Event, b.buffer)

	msgs, err := b.pubsub.Subscribe(ctx, userTopic(userID))
	if err != nil {
		close(out)
		return out, cancel
	}

	go func() {
		defer close(out)
		for msg := range msgs {
			var e Event
			if err := json.Unmarshal(msg.Payload, &e); err == nil {
				select {
				case out <- e:
				default:
				}
			}
			msg.Ack()
		}
	}()
	return out, cancel
}

func (b *Broker) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	_ = b.pubsub.Publish(userTopic(e.UserID), message.NewMessage(watermill.NewUUID(), payload))
}

func (b *Broker) Close() error {
	return b.pubsub.Close()
}
