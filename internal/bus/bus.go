// Package bus is the in-process hand-off between the telemetry pipeline and
// the live broadcaster. Publish never blocks; a subscriber that falls behind
// its buffer loses events rather than stalling the pipeline.
package bus

// Event is the wire shape of one outbound real-time message. Fields not set
// for a given type are omitted from the JSON encoding.
type Event struct {
	Type       string   `json:"type"`
	AlertID    string   `json:"alertId,omitempty"`
	DeviceID   string   `json:"deviceId,omitempty"`
	SensorType string   `json:"sensorType,omitempty"`
	Value      *float64 `json:"value,omitempty"`
	Status     string   `json:"status,omitempty"`
	Severity   string   `json:"severity,omitempty"`
	Message    string   `json:"message,omitempty"`
	TS         string   `json:"ts,omitempty"`
	LastSeen   string   `json:"lastSeen,omitempty"`
}

const (
	TypeSensorReading = "sensor.reading"
	TypeDeviceUpdate  = "device.update"
	TypeAlertCreated  = "alert.created"
)

type Bus struct {
	subs chan subOp
	pub  chan Event
	done chan struct{}
}

type subOp struct {
	ch  chan Event
	add bool
}

func New() *Bus {
	b := &Bus{
		subs: make(chan subOp),
		pub:  make(chan Event, 256),
		done: make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bus) run() {
	channels := map[chan Event]struct{}{}
	for {
		select {
		case op := <-b.subs:
			if op.add {
				channels[op.ch] = struct{}{}
			} else {
				delete(channels, op.ch)
				close(op.ch)
			}
		case evt := <-b.pub:
			for ch := range channels {
				select {
				case ch <- evt:
				default:
					// subscriber too slow, drop
				}
			}
		case <-b.done:
			for ch := range channels {
				close(ch)
			}
			return
		}
	}
}

// Publish enqueues the event for delivery and returns immediately. Events are
// dropped when the bus itself is saturated or already closed.
func (b *Bus) Publish(evt Event) {
	select {
	case b.pub <- evt:
	case <-b.done:
	default:
	}
}

// Subscribe registers a new consumer. The returned channel closes on
// Unsubscribe or when the bus shuts down.
func (b *Bus) Subscribe(buffer int) chan Event {
	ch := make(chan Event, buffer)
	select {
	case b.subs <- subOp{ch: ch, add: true}:
	case <-b.done:
		close(ch)
	}
	return ch
}

func (b *Bus) Unsubscribe(ch chan Event) {
	select {
	case b.subs <- subOp{ch: ch}:
	case <-b.done:
	}
}

func (b *Bus) Close() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}
