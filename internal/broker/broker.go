// Package broker implements the MQTT command-handling engine: the
// per-packet state machine that mutates sessions, subscriptions, the
// topic tree, retained messages, and inflight tables, and stages
// outbound packets back to one or more clients.
package broker

import (
	"sync"
	"sync/atomic"

	"github.com/harrowgate/goqtt/internal/auth"
	"github.com/harrowgate/goqtt/internal/logger"
)

// HandlerOutcome reports what the reactor must do once a handler has
// returned (spec.md §4.1). REPLY means the handler has already staged
// bytes on the client's connection directly, since this broker uses a
// goroutine-per-connection transport rather than a cooperative
// single-threaded reactor with a separate flush phase; the outcome is
// kept to signal transport-level teardown, not to gate a flush.
type HandlerOutcome int

const (
	NoReply HandlerOutcome = iota
	Reply
	ClientDisconnect
	AuthReject
)

func (o HandlerOutcome) String() string {
	switch o {
	case NoReply:
		return "NOREPLY"
	case Reply:
		return "REPLY"
	case ClientDisconnect:
		return "CLIENT_DISCONNECT"
	case AuthReject:
		return "AUTH_REJECT"
	default:
		return "UNKNOWN"
	}
}

// SessionTable is the process-wide mapping from client_id to Session
// (spec.md §2, component B). Sessions with CleanSession=false survive
// across disconnects; SessionTable is the only place that owns them.
type SessionTable struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]*Session)}
}

// Get looks up a Session by client id.
func (st *SessionTable) Get(clientID string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[clientID]
	return s, ok
}

// Store installs or replaces the Session for clientID.
func (st *SessionTable) Store(clientID string, s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[clientID] = s
}

// Delete removes the Session for clientID.
func (st *SessionTable) Delete(clientID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, clientID)
}

// Broker owns every piece of broker-wide state named in spec.md §2:
// the Topic Tree, the Session Table, and the Auth Gate, plus the
// process-wide messages_sent counter from §4.10 step 5.
type Broker struct {
	Sessions *SessionTable
	Topics   *TopicTree
	Auth     *auth.Store

	log *logger.Logger

	messagesSent atomic.Uint64
}

// New builds an empty Broker. authStore may be nil, in which case the
// CONNECT handler treats every client as anonymous-allowed.
func New(authStore *auth.Store, log *logger.Logger) *Broker {
	if log == nil {
		log = logger.NewMQTTLogger("broker")
	}
	return &Broker{
		Sessions: newSessionTable(),
		Topics:   NewTopicTree(),
		Auth:     authStore,
		log:      log,
	}
}

// MessagesSent returns the running count of fanned-out PUBLISH deliveries.
func (b *Broker) MessagesSent() uint64 {
	return b.messagesSent.Load()
}
