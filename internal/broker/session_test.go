package broker

import (
	"testing"

	"github.com/harrowgate/goqtt/internal/packet"
)

func TestSessionAttachDetach(t *testing.T) {
	sess := newSession("c1", false, 60, nil)

	sess.Detach()
	if sess.Online() {
		t.Error("Detach should mark the session offline")
	}
	if sess.Conn() != nil {
		t.Error("Detach should clear the connection")
	}
}

func TestSessionWillLifecycle(t *testing.T) {
	sess := newSession("c1", true, 60, nil)
	if sess.Will() != nil {
		t.Error("a fresh session should have no Will")
	}

	will := &LastWill{Topic: "a/b", Message: []byte("bye"), QoS: packet.QoSAtLeastOnce}
	sess.SetWill(will)
	if got := sess.Will(); got == nil || got.Topic != "a/b" {
		t.Errorf("Will() = %+v, want %+v", got, will)
	}

	sess.DiscardWill()
	if sess.Will() != nil {
		t.Error("DiscardWill should clear the Will")
	}
}

func TestSessionEnqueueDrainQueueIsFIFO(t *testing.T) {
	sess := newSession("c1", false, 60, nil)
	sess.Enqueue(QueuedMessage{Topic: "a", Payload: []byte("1")})
	sess.Enqueue(QueuedMessage{Topic: "a", Payload: []byte("2")})

	drained := sess.DrainQueue()
	if len(drained) != 2 || string(drained[0].Payload) != "1" || string(drained[1].Payload) != "2" {
		t.Errorf("unexpected drain order: %+v", drained)
	}
	if again := sess.DrainQueue(); len(again) != 0 {
		t.Error("DrainQueue should empty the queue")
	}
}

func TestSessionSubscriptionsAddRemove(t *testing.T) {
	sess := newSession("c1", true, 60, nil)
	topicA := newTopic("a/")
	topicB := newTopic("b/")

	sess.addSubscription(topicA)
	sess.addSubscription(topicB)
	if got := sess.Subscriptions(); len(got) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(got))
	}

	sess.removeSubscription(topicA)
	got := sess.Subscriptions()
	if len(got) != 1 || got[0] != topicB {
		t.Errorf("unexpected subscriptions after removal: %+v", got)
	}

	sess.ResetSubscriptions()
	if got := sess.Subscriptions(); len(got) != 0 {
		t.Error("ResetSubscriptions should clear all subscriptions")
	}
}

func TestSessionInflightPubrelTransition(t *testing.T) {
	sess := newSession("c1", true, 60, nil)
	id, err := sess.AllocMid()
	if err != nil {
		t.Fatalf("AllocMid: %v", err)
	}

	stub := []byte{byte(packet.PUBACK), 0x02, byte(id >> 8), byte(id & 0xFF)}
	sess.PutIAck(id, &InflightEntry{InUse: true, Packet: stub})

	if !sess.MarkPubrel(id) {
		t.Fatal("MarkPubrel should succeed on an in-use IAck slot")
	}
	if got := sess.IAck(id).Packet[0]; got != byte(packet.PUBREL)|0x02 {
		t.Errorf("stub ack header = %x, want PUBREL with reserved bits set", got)
	}
}

func TestSessionReleasePubAckIsIdempotent(t *testing.T) {
	sess := newSession("c1", true, 60, nil)
	sess.ReleasePubAck(999) // nothing in use: must not panic
	if sess.HasInflight() {
		t.Error("HasInflight should be false on a fresh session")
	}
}
