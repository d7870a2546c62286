package broker

import (
	"github.com/harrowgate/goqtt/internal/packet"
)

// Dispatch implements spec.md §4.1's single dispatcher entry point:
// given an already-decoded packet and the Session that owns the
// connection it arrived on, route it to the one matching per-type
// handler and return its HandlerOutcome. CONNECT is not routed through
// here: it is the one packet type that can arrive before a Session
// exists, so the reactor calls HandleConnect directly and only starts
// calling Dispatch once a Session is attached.
func (b *Broker) Dispatch(session *Session, parsed *packet.ParsedPacket) (HandlerOutcome, error) {
	b.log.LogMQTTPacket(parsed.Type.String(), session.ClientID, "inbound")

	switch parsed.Type {
	case packet.PUBLISH:
		return b.HandlePublish(session, parsed.Publish)
	case packet.PUBACK:
		return b.HandlePuback(session, parsed.Puback)
	case packet.PUBREC:
		return b.HandlePubrec(session, parsed.Pubrec)
	case packet.PUBREL:
		return b.HandlePubrel(session, parsed.Pubrel)
	case packet.PUBCOMP:
		return b.HandlePubcomp(session, parsed.Pubcomp)
	case packet.SUBSCRIBE:
		return b.HandleSubscribe(session, parsed.Subscribe)
	case packet.UNSUBSCRIBE:
		return b.HandleUnsubscribe(session, parsed.Unsubscribe)
	case packet.PINGREQ:
		return b.HandlePingreq(session, parsed.Pingreq)
	case packet.DISCONNECT:
		return b.HandleDisconnect(session)
	default:
		// Unknown control type: spec.md §7 treats this as a protocol
		// violation, same as a double CONNECT.
		return ClientDisconnect, nil
	}
}
