package publisher

import (
	"context"
	"time"

	"locregistry/pkg/platform/audit"
)

// ChannelPublisher hands events to an in-process worker over a buffered
// channel. It is the sink used when no Kafka brokers are configured.
type ChannelPublisher struct {
	out chan audit.Event
}

// NewChannel returns a publisher and the channel a worker should consume.
func NewChannel(buffer int) (*ChannelPublisher, <-chan audit.Event) {
	if buffer <= 0 {
		buffer = 256
	}
	out := make(chan audit.Event, buffer)
	return &ChannelPublisher{out: out}, out
}

// Emit enqueues the event. A full buffer drops the event rather than
// stalling the operation that emitted it.
func (p *ChannelPublisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.out <- event:
	default:
	}
	return nil
}
