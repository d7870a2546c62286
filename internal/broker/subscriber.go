package broker

import (
	"sync/atomic"

	"github.com/harrowgate/goqtt/internal/packet"
)

// Subscriber pairs a Session with the QoS it was granted on one
// topic. Wildcard subscriptions (spec.md §4.3) install the SAME
// Subscriber record under every matching topic, so Refs tracks how
// many topics currently hold it: removing it from one topic must not
// invalidate it for the others.
type Subscriber struct {
	Session *Session
	QoS     packet.QoSLevel
	refs    atomic.Int32
}

func newSubscriber(session *Session, qos packet.QoSLevel) *Subscriber {
	return &Subscriber{Session: session, QoS: qos}
}

// Ref increments the install count and returns the new value.
func (s *Subscriber) Ref() int32 { return s.refs.Add(1) }

// Refs reports how many topics currently hold this Subscriber.
func (s *Subscriber) Refs() int32 { return s.refs.Load() }
