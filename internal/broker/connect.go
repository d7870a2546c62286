package broker

import (
	"log/slog"
	"net"

	"github.com/harrowgate/goqtt/internal/packet"
)

// HandleConnect implements spec.md §4.2. It runs the auth gate,
// resolves (or creates) the Session for the client id, persists any
// declared Will, flushes a resumed Session's offline queue ahead of
// the CONNACK, and stages CONNACK(ACCEPTED). The CONNECT logic lives
// here rather than inline in the transport layer, generalizing the
// teacher's transport-embedded CONNECT handling into a dedicated
// broker handler alongside the other nine.
func (b *Broker) HandleConnect(conn net.Conn, cp *packet.ConnectPacket) (*Session, HandlerOutcome, error) {
	if b.Auth != nil && !b.Auth.AllowAnonymous() {
		if !cp.UsernameFlag || !cp.PasswordFlag {
			b.log.LogAuth(cp.ClientID, "", false, "missing username or password")
			conn.Write(packet.NewConnAck(false, packet.BadUsernameOrPassword))
			return nil, AuthReject, nil
		}
		if err := b.Auth.Authenticate(*cp.Username, *cp.Password); err != nil {
			b.log.LogAuth(cp.ClientID, *cp.Username, false, err.Error())
			conn.Write(packet.NewConnAck(false, packet.BadUsernameOrPassword))
			return nil, AuthReject, nil
		}
		b.log.LogAuth(cp.ClientID, *cp.Username, true, "")
	}

	existing, found := b.Sessions.Get(cp.ClientID)
	if found && existing.Online() {
		// MQTT's "take-over" rule: a second live CONNECT for a
		// client id already online is a protocol violation enforced
		// by disconnecting the NEW connection, per spec.md §4.2.4.
		return nil, ClientDisconnect, nil
	}

	var session *Session
	switch {
	case found && !cp.CleanSession:
		session = existing
		session.Attach(conn)
		session.KeepAlive = cp.KeepAlive
	default:
		if found {
			for _, t := range existing.Subscriptions() {
				t.RemoveSubscriber(existing.ClientID)
			}
		}
		session = newSession(cp.ClientID, cp.CleanSession, cp.KeepAlive, conn)
	}

	if cp.WillFlag && cp.WillTopic != nil {
		will := &LastWill{Topic: *cp.WillTopic, QoS: packet.QoSLevel(cp.WillQoS), Retain: cp.WillRetain}
		if cp.WillMessage != nil {
			will.Message = []byte(*cp.WillMessage)
		}
		session.SetWill(will)
		if cp.WillRetain {
			topic := b.Topics.GetOrCreate(Normalize(will.Topic))
			topic.SetRetained(&RetainedMessage{Payload: will.Message, QoS: will.QoS})
		}
	}

	if cp.CleanSession {
		session.ResetSubscriptions()
	} else if found {
		for _, m := range session.DrainQueue() {
			if err := b.deliver(session, m.Topic, m.Payload, m.QoS, m.Retain); err != nil {
				b.log.LogError(err, "offline queue flush failed", slog.String("client_id", session.ClientID))
			}
		}
	}

	b.Sessions.Store(cp.ClientID, session)
	b.log.LogClientConnection(cp.ClientID, conn.RemoteAddr().String(), "connect", slog.Bool("clean_session", cp.CleanSession))

	if err := session.Send(packet.NewConnAck(false, packet.ConnectionAccepted)); err != nil {
		return session, Reply, err
	}
	return session, Reply, nil
}
