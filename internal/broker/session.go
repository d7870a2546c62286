package broker

import (
	"net"
	"sync"
	"time"

	"github.com/harrowgate/goqtt/internal/packet"
	"github.com/harrowgate/goqtt/pkg/er"
)

// LastWill is a Session's persisted Will, set at CONNECT and published
// by the reactor on any disconnect that is not a clean DISCONNECT.
type LastWill struct {
	Topic   string
	Message []byte
	QoS     packet.QoSLevel
	Retain  bool
}

// InflightEntry is one outstanding packet-id slot, as described by
// spec.md §3: immutable once set except for InUse and SentTimestamp.
// Packet is mutated in place when a stub ack's header type advances
// (PUBREC -> PUBREL, spec.md §4.7).
type InflightEntry struct {
	InUse         bool
	ClientID      string
	Packet        []byte
	Size          int
	SentTimestamp int64
}

// QueuedMessage is one PUBLISH buffered in a Session's offline queue
// (spec.md §3 outgoing_msgs), used only when CleanSession is false.
type QueuedMessage struct {
	Topic   string
	QoS     packet.QoSLevel
	Retain  bool
	Payload []byte
}

// Session is the broker's long-lived per-client_id record (spec.md
// §3). It is created at CONNECT, retained across DISCONNECT iff
// CleanSession is false, and destroyed on CONNECT-kick or a clean
// DISCONNECT with CleanSession true.
type Session struct {
	ClientID     string
	CleanSession bool
	KeepAlive    uint16

	ConnectionTimestamp int64

	mu            sync.Mutex
	conn          net.Conn
	writeMu       sync.Mutex
	online        bool
	subscriptions []*Topic
	outgoingMsgs  []QueuedMessage

	iMsgs   map[uint16]*InflightEntry // outbound PUBLISH awaiting ack
	iAcks   map[uint16]*InflightEntry // outbound ack owed to this client
	inIAcks map[uint16]struct{}       // PUBREL this broker awaits from this client

	hasLWT bool
	lwt    *LastWill

	nextMid uint16
}

func newSession(clientID string, cleanSession bool, keepAlive uint16, conn net.Conn) *Session {
	return &Session{
		ClientID:            clientID,
		CleanSession:        cleanSession,
		KeepAlive:           keepAlive,
		ConnectionTimestamp: time.Now().UnixNano(),
		conn:                conn,
		online:              true,
		iMsgs:               make(map[uint16]*InflightEntry),
		iAcks:               make(map[uint16]*InflightEntry),
		inIAcks:             make(map[uint16]struct{}),
	}
}

// Online reports whether this Session currently owns a live connection.
func (s *Session) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Conn returns the Session's current transport connection, or nil if offline.
func (s *Session) Conn() net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Attach marks the Session online against a fresh connection, used on
// CONNECT-resume.
func (s *Session) Attach(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.online = true
	s.ConnectionTimestamp = time.Now().UnixNano()
}

// Detach marks the Session offline, dropping its transport reference.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = nil
	s.online = false
}

// Send writes raw wire bytes to the Session's connection if online.
// This collapses the spec's wbuf/towrite staging buffer plus the
// reactor's enqueue_event_write into one call, since this broker uses
// a goroutine-per-connection transport rather than a cooperative
// single-threaded reactor (spec.md §5 permits this as a sharding
// choice; here each connection is its own shard of one).
func (s *Session) Send(data []byte) error {
	conn := s.Conn()
	if conn == nil {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := conn.Write(data)
	return err
}

// Subscriptions returns a snapshot of the Topics this Session is
// currently subscribed to, per spec.md invariant 3.
func (s *Session) Subscriptions() []*Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Topic, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out
}

func (s *Session) addSubscription(t *Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = append(s.subscriptions, t)
}

// ResetSubscriptions clears the subscription list, used on CONNECT
// with CleanSession true (spec.md §4.2.7).
func (s *Session) ResetSubscriptions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = nil
}

// removeSubscription drops t from the subscription list, if present.
func (s *Session) removeSubscription(t *Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.subscriptions {
		if existing == t {
			s.subscriptions = append(s.subscriptions[:i], s.subscriptions[i+1:]...)
			return
		}
	}
}

// SetWill persists the CONNECT-declared Will.
func (s *Session) SetWill(w *LastWill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasLWT = true
	s.lwt = w
}

// Will returns the Session's Last Will, or nil if none was declared.
func (s *Session) Will() *LastWill {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasLWT {
		return nil
	}
	return s.lwt
}

// DiscardWill clears the Session's Will without publishing it, as
// MQTT 3.1.1 §3.1.2.5 requires on receipt of a client DISCONNECT.
func (s *Session) DiscardWill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasLWT = false
	s.lwt = nil
}

// Enqueue appends msg to the offline queue (spec.md §3 outgoing_msgs),
// used by fan-out when this Session is offline and CleanSession=false.
func (s *Session) Enqueue(msg QueuedMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outgoingMsgs = append(s.outgoingMsgs, msg)
}

// DrainQueue removes and returns every buffered offline message in
// FIFO order (spec.md invariant 6).
func (s *Session) DrainQueue() []QueuedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.outgoingMsgs
	s.outgoingMsgs = nil
	return out
}

// HasInflight reports whether any inflight slot across all three
// tables is currently in use (spec.md invariant 2).
func (s *Session) HasInflight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.iMsgs) > 0 || len(s.iAcks) > 0 || len(s.inIAcks) > 0
}

// AllocMid allocates a 16-bit packet id not currently marked in-use in
// either IMsgs or IAcks (spec.md §4.11). It returns
// er.ErrPacketIDSpaceExhausted once every one of the 65535 ids is
// outstanding, rather than silently reusing or corrupting a live slot
// (spec.md §9 Packet-id exhaustion).
func (s *Session) AllocMid() (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempts := 0; attempts < 65535; attempts++ {
		s.nextMid++
		if s.nextMid == 0 {
			s.nextMid = 1
		}
		id := s.nextMid
		if _, used := s.iMsgs[id]; used {
			continue
		}
		if _, used := s.iAcks[id]; used {
			continue
		}
		return id, nil
	}
	return 0, &er.Err{Context: "Session.AllocMid", Message: er.ErrPacketIDSpaceExhausted}
}

// PutIMsg installs an outbound-PUBLISH inflight entry at id if that
// slot is free.
func (s *Session) PutIMsg(id uint16, entry *InflightEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, used := s.iMsgs[id]; !used {
		s.iMsgs[id] = entry
	}
}

// PutIAck installs an outbound-ack-owed inflight entry at id if free.
func (s *Session) PutIAck(id uint16, entry *InflightEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, used := s.iAcks[id]; !used {
		s.iAcks[id] = entry
	}
}

// IAck returns the outbound-ack-owed entry at id, or nil.
func (s *Session) IAck(id uint16) *InflightEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iAcks[id]
}

// ReleasePubAck frees IMsgs[id] and IAcks[id], completing the QoS-1
// send flow or the "awaiting PUBCOMP" leg of QoS-2 (spec.md §4.6, §4.9).
// It is idempotent: releasing an id with nothing in use is a no-op,
// per spec.md's "peer sends ack for an id not in use" error policy.
func (s *Session) ReleasePubAck(id uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.iMsgs, id)
	delete(s.iAcks, id)
}

// MarkPubrel mutates the stored IAcks[id] stub ack's header type to
// PUBREL and refreshes its SentTimestamp, advancing outbound QoS-2
// from "PUBLISH sent, awaiting PUBREC" to "PUBREL sent, awaiting
// PUBCOMP" (spec.md §4.7). Reports whether the slot was in use.
func (s *Session) MarkPubrel(id uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.iAcks[id]
	if !ok || !entry.InUse {
		return false
	}
	if len(entry.Packet) > 0 {
		entry.Packet[0] = byte(packet.PUBREL) | 0x02
	}
	entry.SentTimestamp = time.Now().UnixNano()
	return true
}

// PutInIAck marks id as a PUBREL this broker is waiting to receive
// from this client (inbound QoS-2, spec.md §4.5.3).
func (s *Session) PutInIAck(id uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inIAcks[id] = struct{}{}
}

// HasInIAck reports whether id is awaiting an inbound PUBREL.
func (s *Session) HasInIAck(id uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inIAcks[id]
	return ok
}

// ReleaseInIAck clears the inbound PUBREL wait for id (spec.md §4.8),
// idempotently.
func (s *Session) ReleaseInIAck(id uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inIAcks, id)
}
