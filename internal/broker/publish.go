package broker

import (
	"log/slog"
	"time"

	"github.com/harrowgate/goqtt/internal/packet"
)

func minQoS(a, b packet.QoSLevel) packet.QoSLevel {
	if a < b {
		return a
	}
	return b
}

// deliver encodes one PUBLISH at the given effective QoS and writes
// it to sess, registering inflight bookkeeping for QoS>0 (spec.md
// §4.10 steps 3-4). It is shared by the fan-out path, retained-message
// replay on SUBSCRIBE, and offline-queue flush on reconnect, since all
// three stage an outbound PUBLISH the same way.
func (b *Broker) deliver(sess *Session, topicName string, payload []byte, qos packet.QoSLevel, retain bool) error {
	var packetID *uint16
	if qos != packet.QoSAtMostOnce {
		id, err := sess.AllocMid()
		if err != nil {
			return err
		}
		packetID = &id
	}

	pkt := &packet.PublishPacket{Topic: topicName, Payload: payload, QoS: qos, Retain: retain, PacketID: packetID}
	data := pkt.Encode()

	if packetID != nil {
		sess.PutIMsg(*packetID, &InflightEntry{
			InUse:         true,
			ClientID:      sess.ClientID,
			Packet:        data,
			Size:          len(data),
			SentTimestamp: time.Now().UnixNano(),
		})

		ackType := byte(packet.PUBACK)
		if qos == packet.QoSExactlyOnce {
			ackType = byte(packet.PUBREC)
		}
		stub := []byte{ackType, 0x02, byte(*packetID >> 8), byte(*packetID & 0xFF)}
		sess.PutIAck(*packetID, &InflightEntry{
			InUse:         true,
			ClientID:      sess.ClientID,
			Packet:        stub,
			Size:          len(stub),
			SentTimestamp: time.Now().UnixNano(),
		})
	}

	if err := sess.Send(data); err != nil {
		return err
	}
	b.messagesSent.Add(1)
	return nil
}

// publishMessage is the Publish Fan-out of spec.md §4.10: given a
// PUBLISH and its Topic, materialise it for every current subscriber
// honoring QoS downgrade, inflight registration, and offline queueing.
// Fan-out does not hold the topic lock while writing to sockets;
// Subscribers() already returned a snapshot.
func (b *Broker) publishMessage(topicName string, payload []byte, pubQoS packet.QoSLevel, retain bool, topic *Topic) {
	for _, sub := range topic.Subscribers() {
		effQoS := minQoS(pubQoS, sub.QoS)
		sess := sub.Session

		if !sess.Online() {
			if !sess.CleanSession {
				sess.Enqueue(QueuedMessage{Topic: topicName, QoS: effQoS, Retain: retain, Payload: payload})
			}
			continue
		}

		if err := b.deliver(sess, topicName, payload, effQoS, retain); err != nil {
			b.log.LogError(err, "fan-out delivery failed", slog.String("client_id", sess.ClientID))
		}
	}
}

// HandlePublish implements spec.md §4.5: store/clear the retained
// message, fan the PUBLISH out to current subscribers, then ack the
// publisher according to its own QoS.
func (b *Broker) HandlePublish(session *Session, pp *packet.PublishPacket) (HandlerOutcome, error) {
	normalized := Normalize(pp.Topic)
	topic := b.Topics.GetOrCreate(normalized)

	b.log.LogPublish(session.ClientID, normalized, int(pp.QoS), pp.Retain, len(pp.Payload))

	if pp.Retain {
		if len(pp.Payload) == 0 {
			topic.SetRetained(nil)
			b.log.LogRetainedMessage(normalized, "removed", 0)
		} else {
			topic.SetRetained(&RetainedMessage{Payload: pp.Payload, QoS: pp.QoS})
			b.log.LogRetainedMessage(normalized, "stored", len(pp.Payload))
		}
	}

	b.publishMessage(normalized, pp.Payload, pp.QoS, pp.Retain, topic)

	var packetID uint16
	if pp.PacketID != nil {
		packetID = *pp.PacketID
	}

	switch pp.QoS {
	case packet.QoSAtMostOnce:
		return NoReply, nil

	case packet.QoSAtLeastOnce:
		if err := session.Send(packet.NewPubAck(packetID)); err != nil {
			return Reply, err
		}
		return Reply, nil

	case packet.QoSExactlyOnce:
		session.PutInIAck(packetID)
		if err := session.Send(packet.NewPubRec(packetID)); err != nil {
			return Reply, err
		}
		return Reply, nil

	default:
		return ClientDisconnect, nil
	}
}
