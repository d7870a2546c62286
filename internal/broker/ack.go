package broker

import "github.com/harrowgate/goqtt/internal/packet"

// HandlePuback implements spec.md §4.6: releases i_msgs[id] and
// i_acks[id], completing the QoS-1 send flow. Idempotent per spec.md
// §7: an id not in use is silently ignored.
func (b *Broker) HandlePuback(session *Session, ack *packet.PubackPacket) (HandlerOutcome, error) {
	session.ReleasePubAck(ack.PacketID)
	b.log.LogQoSFlow(session.ClientID, ack.PacketID, 1, "PUBACK_RECEIVED")
	return NoReply, nil
}

// HandlePubrec implements spec.md §4.7: stages PUBREL with the same
// id and, if i_acks[id] is in use, mutates its stored stub ack's
// header type from PUBACK/PUBREC to PUBREL in place.
func (b *Broker) HandlePubrec(session *Session, ack *packet.PubrecPacket) (HandlerOutcome, error) {
	session.MarkPubrel(ack.PacketID)
	b.log.LogQoSFlow(session.ClientID, ack.PacketID, 2, "PUBREC_RECEIVED")
	if err := session.Send(packet.NewPubRel(ack.PacketID)); err != nil {
		return Reply, err
	}
	return Reply, nil
}

// HandlePubrel implements spec.md §4.8: stages PUBCOMP and releases
// in_i_acks[id], completing inbound QoS-2. The original PUBLISH
// payload was already delivered to subscribers on receipt of PUBLISH
// (spec.md §4.5.3), not here.
func (b *Broker) HandlePubrel(session *Session, rel *packet.PubrelPacket) (HandlerOutcome, error) {
	session.ReleaseInIAck(rel.PacketID)
	b.log.LogQoSFlow(session.ClientID, rel.PacketID, 2, "PUBREL_RECEIVED")
	if err := session.Send(packet.NewPubComp(rel.PacketID)); err != nil {
		return Reply, err
	}
	return Reply, nil
}

// HandlePubcomp implements spec.md §4.9: releases i_acks[id] and
// i_msgs[id], completing outbound QoS-2.
func (b *Broker) HandlePubcomp(session *Session, comp *packet.PubcompPacket) (HandlerOutcome, error) {
	session.ReleasePubAck(comp.PacketID)
	b.log.LogQoSFlow(session.ClientID, comp.PacketID, 2, "PUBCOMP_RECEIVED")
	return NoReply, nil
}
