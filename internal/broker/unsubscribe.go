package broker

import "github.com/harrowgate/goqtt/internal/packet"

// HandleUnsubscribe implements spec.md §4.4: for each filter, look up
// the Topic (never creating one) and, if found, remove the client from
// its subscriber set, then stage UNSUBACK with the original packet id.
func (b *Broker) HandleUnsubscribe(session *Session, up *packet.UnsubscribePacket) (HandlerOutcome, error) {
	for _, filter := range up.TopicFilters {
		normalized, wildcard := normalizeFilter(filter)
		b.log.LogSubscription(session.ClientID, filter, 0, "unsubscribe")

		if wildcard {
			b.Topics.PrefixMap(normalized, func(t *Topic) {
				if t.RemoveSubscriber(session.ClientID) {
					session.removeSubscription(t)
				}
			})
			continue
		}

		if topic, ok := b.Topics.Get(normalized); ok {
			if topic.RemoveSubscriber(session.ClientID) {
				session.removeSubscription(topic)
			}
		}
	}

	unsuback := &packet.UnsubackPacket{PacketID: up.PacketID}
	if err := session.Send(unsuback.Encode()); err != nil {
		return Reply, err
	}
	return Reply, nil
}
