package bus

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// Publisher mirrors bus events onto NATS subjects ("telemetry.<type>") so
// external consumers can tap the live stream. It is optional: in-process
// delivery to websocket clients never goes through it.
type Publisher struct {
	Conn *nats.Conn
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{Conn: conn}, nil
}

func (p *Publisher) Close() {
	if p.Conn != nil {
		p.Conn.Drain()
		p.Conn.Close()
	}
}

func (p *Publisher) Publish(evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.Conn.Publish("telemetry."+evt.Type, data)
}

// Forward consumes events from the bus until the context is cancelled or the
// subscription channel closes. Publish errors are ignored; the bridge is
// best-effort by design.
func (p *Publisher) Forward(ctx context.Context, b *Bus) {
	ch := b.Subscribe(256)
	defer b.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			_ = p.Publish(evt)
		}
	}
}
