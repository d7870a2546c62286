package broker

import (
	"strings"
	"sync"

	"github.com/harrowgate/goqtt/internal/packet"
)

// RetainedMessage is the last PUBLISH sent to a topic with retain=1,
// kept in decoded form so replay (spec.md §4.3.5) can recompute the
// effective-QoS encoding for whichever QoS a new subscriber was
// granted, rather than replaying one fixed wire encoding to everyone.
type RetainedMessage struct {
	Payload []byte
	QoS     packet.QoSLevel
}

// Topic is a node's payload in the TopicTree: the set of current
// subscribers and the last retained PUBLISH.
type Topic struct {
	Name string

	mu          sync.RWMutex
	subscribers map[string]*Subscriber // client id -> Subscriber
	retainedMsg *RetainedMessage
}

func newTopic(name string) *Topic {
	return &Topic{
		Name:        name,
		subscribers: make(map[string]*Subscriber),
	}
}

// PutSubscriber installs sub under this topic, keyed by its client id.
func (t *Topic) PutSubscriber(sub *Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers[sub.Session.ClientID] = sub
}

// RemoveSubscriber drops clientID from this topic's subscriber set.
// Reports whether a subscriber was actually present.
func (t *Topic) RemoveSubscriber(clientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subscribers[clientID]; !ok {
		return false
	}
	delete(t.subscribers, clientID)
	return true
}

// Subscribers returns a snapshot slice of the current subscriber set,
// safe to range over after the topic's lock is released (fan-out must
// not hold the topic lock while writing to client sockets).
func (t *Topic) Subscribers() []*Subscriber {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Subscriber, 0, len(t.subscribers))
	for _, s := range t.subscribers {
		out = append(out, s)
	}
	return out
}

// SetRetained replaces the topic's retained message. A nil msg clears
// it; HandlePublish passes nil for a zero-length retained PUBLISH, the
// MQTT 3.1.1 §3.3.1.3 behavior that the teacher's source left unimplemented.
func (t *Topic) SetRetained(msg *RetainedMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retainedMsg = msg
}

// Retained returns the topic's current retained message, or nil.
func (t *Topic) Retained() *RetainedMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.retainedMsg
}

// topicNode is one segment of the '/'-separated trie.
type topicNode struct {
	children map[string]*topicNode
	topic    *Topic
}

// TopicTree is a trie over '/'-separated topic path segments, rooted
// at the empty prefix. It supports exact get, get-or-create, and a
// prefix walk used to expand "/#" wildcard subscriptions.
type TopicTree struct {
	mu   sync.RWMutex
	root *topicNode
}

func NewTopicTree() *TopicTree {
	return &TopicTree{
		root: &topicNode{children: make(map[string]*topicNode)},
	}
}

// Normalize ensures name ends in '/', per spec.md §3: "the broker
// normalises every topic to end in '/' at lookup time."
func Normalize(name string) string {
	if strings.HasSuffix(name, "/") {
		return name
	}
	return name + "/"
}

func segments(path string) []string {
	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Get performs an exact lookup of the normalised path, never creating.
func (tt *TopicTree) Get(path string) (*Topic, bool) {
	path = Normalize(path)
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	node := tt.root
	for _, seg := range segments(path) {
		next, ok := node.children[seg]
		if !ok {
			return nil, false
		}
		node = next
	}
	if node.topic == nil {
		return nil, false
	}
	return node.topic, true
}

// GetOrCreate returns the Topic at path, creating every trie node and
// the leaf Topic payload that does not yet exist.
func (tt *TopicTree) GetOrCreate(path string) *Topic {
	path = Normalize(path)
	tt.mu.Lock()
	defer tt.mu.Unlock()

	node := tt.root
	for _, seg := range segments(path) {
		next, ok := node.children[seg]
		if !ok {
			next = &topicNode{children: make(map[string]*topicNode)}
			node.children[seg] = next
		}
		node = next
	}
	if node.topic == nil {
		node.topic = newTopic(path)
	}
	return node.topic
}

// PrefixMap invokes fn for every descendant of prefix (inclusive) that
// carries a non-nil Topic payload, used to expand a "/#" wildcard
// subscription over every currently-known topic under that prefix.
func (tt *TopicTree) PrefixMap(prefix string, fn func(*Topic)) {
	prefix = Normalize(prefix)
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	node := tt.root
	for _, seg := range segments(prefix) {
		next, ok := node.children[seg]
		if !ok {
			return
		}
		node = next
	}
	walkTopics(node, fn)
}

func walkTopics(node *topicNode, fn func(*Topic)) {
	if node.topic != nil {
		fn(node.topic)
	}
	for _, child := range node.children {
		walkTopics(child, fn)
	}
}
