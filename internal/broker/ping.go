package broker

import "github.com/harrowgate/goqtt/internal/packet"

// HandlePingreq implements spec.md §4.13: stage a PINGRESP and reply.
func (b *Broker) HandlePingreq(session *Session, _ *packet.PingreqPacket) (HandlerOutcome, error) {
	if err := session.Send(packet.CreatePingresp().Encode()); err != nil {
		return Reply, err
	}
	return Reply, nil
}
