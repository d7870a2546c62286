package broker

import (
	"strings"

	"github.com/harrowgate/goqtt/internal/packet"
)

// normalizeFilter applies spec.md §4.3.1: a filter ending in "/#" is
// stripped of its trailing "#" and marked as a wildcard subscription
// over the remaining prefix; otherwise it is normalised to end in "/"
// like any other topic name. Only the trailing multi-level wildcard is
// expanded by this core ("+" is not expanded at subscribe time).
func normalizeFilter(filter string) (normalized string, wildcard bool) {
	if strings.HasSuffix(filter, "/#") {
		return strings.TrimSuffix(filter, "#"), true
	}
	return Normalize(filter), false
}

// HandleSubscribe implements spec.md §4.3: normalise and install a
// Subscriber per requested filter (expanding "/#" wildcards across
// every matching topic), replay retained messages immediately, and
// stage a single SUBACK carrying the granted-QoS list in tuple order.
func (b *Broker) HandleSubscribe(session *Session, sp *packet.SubscribePacket) (HandlerOutcome, error) {
	codes := make([]byte, len(sp.Filters))

	for i, filter := range sp.Filters {
		normalized, wildcard := normalizeFilter(filter.Topic)
		topic := b.Topics.GetOrCreate(normalized)
		sub := newSubscriber(session, filter.QoS)

		if wildcard {
			var matched []*Topic
			b.Topics.PrefixMap(normalized, func(t *Topic) {
				t.PutSubscriber(sub)
				sub.Ref()
				matched = append(matched, t)
			})
			for _, t := range matched {
				session.addSubscription(t)
				b.replayRetained(session, t, filter.QoS)
			}
		} else {
			topic.PutSubscriber(sub)
			sub.Ref()
			session.addSubscription(topic)
			b.replayRetained(session, topic, filter.QoS)
		}

		codes[i] = grantedCode(filter.QoS)
		b.log.LogSubscription(session.ClientID, filter.Topic, int(filter.QoS), "subscribe")
	}

	suback := packet.NewSubAckWithCodes(sp.PacketID, codes)
	if err := session.Send(suback.Encode()); err != nil {
		return Reply, err
	}
	return Reply, nil
}

// replayRetained implements spec.md §4.3.5 / invariant 7: a topic's
// retained message, if any, is staged into wbuf immediately, before
// the SUBACK that covers this SUBSCRIBE.
func (b *Broker) replayRetained(session *Session, topic *Topic, grantedQoS packet.QoSLevel) {
	retained := topic.Retained()
	if retained == nil {
		return
	}
	effQoS := minQoS(retained.QoS, grantedQoS)
	if err := b.deliver(session, topic.Name, retained.Payload, effQoS, true); err != nil {
		b.log.LogError(err, "retained replay failed")
		return
	}
	b.log.LogRetainedMessage(topic.Name, "delivered", len(retained.Payload))
}

func grantedCode(qos packet.QoSLevel) byte {
	switch qos {
	case packet.QoSAtMostOnce:
		return packet.SubackMaxQoS0
	case packet.QoSAtLeastOnce:
		return packet.SubackMaxQoS1
	case packet.QoSExactlyOnce:
		return packet.SubackMaxQoS2
	default:
		return packet.SubackFailure
	}
}
