package broker

// HandleDisconnect implements spec.md §4.12 for a graceful,
// client-sent DISCONNECT: the Will is discarded unpublished (MQTT
// 3.1.1 §3.1.2.5), subscriptions are torn down when CleanSession is
// true, and the Session is either destroyed or left to survive
// offline per CleanSession.
func (b *Broker) HandleDisconnect(session *Session) (HandlerOutcome, error) {
	session.DiscardWill()
	b.teardown(session)
	return ClientDisconnect, nil
}

// HandleUngracefulDisconnect is the spec.md §5/§9 supplement: a
// socket loss or keepalive timeout that the reactor turns into a
// synthetic disconnect. Unlike a client DISCONNECT, the Will (if any)
// is published before teardown runs.
func (b *Broker) HandleUngracefulDisconnect(session *Session) {
	if will := session.Will(); will != nil {
		topic := b.Topics.GetOrCreate(Normalize(will.Topic))
		if will.Retain {
			if len(will.Message) == 0 {
				topic.SetRetained(nil)
			} else {
				topic.SetRetained(&RetainedMessage{Payload: will.Message, QoS: will.QoS})
			}
		}
		b.publishMessage(topic.Name, will.Message, will.QoS, will.Retain, topic)
	}
	b.teardown(session)
}

// teardown applies spec.md §4.12's CleanSession branch shared by both
// disconnect paths: remove the client from every subscribed Topic and
// either destroy the Session (CleanSession=true) or detach it to
// survive offline with its queue intact (CleanSession=false).
func (b *Broker) teardown(session *Session) {
	if session.CleanSession {
		for _, t := range session.Subscriptions() {
			t.RemoveSubscriber(session.ClientID)
		}
		session.ResetSubscriptions()
		b.Sessions.Delete(session.ClientID)
		return
	}
	session.Detach()
}
