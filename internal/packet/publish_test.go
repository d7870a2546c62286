package packet

import (
	"bytes"
	"testing"
)

func TestPublishEncodeParseRoundTripQoS0(t *testing.T) {
	pp := &PublishPacket{Topic: "sensors/temp", Payload: []byte("21.5"), QoS: QoSAtMostOnce}
	raw := pp.Encode()

	var got PublishPacket
	if err := got.Parse(raw); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Topic != pp.Topic || !bytes.Equal(got.Payload, pp.Payload) || got.QoS != pp.QoS {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if got.PacketID != nil {
		t.Errorf("QoS 0 PUBLISH must not carry a packet id, got %v", *got.PacketID)
	}
}

func TestPublishEncodeParseRoundTripQoS1(t *testing.T) {
	id := uint16(42)
	pp := &PublishPacket{Topic: "a/b", Payload: []byte("hi"), QoS: QoSAtLeastOnce, PacketID: &id}
	raw := pp.Encode()

	var got PublishPacket
	if err := got.Parse(raw); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.PacketID == nil || *got.PacketID != id {
		t.Errorf("packet id not preserved: got %v, want %d", got.PacketID, id)
	}
}

func TestPublishEncodeWithQoSDowngrade(t *testing.T) {
	id := uint16(7)
	pp := &PublishPacket{Topic: "a/b", Payload: []byte("x"), QoS: QoSExactlyOnce, Retain: true}

	raw := pp.EncodeWithQoS(QoSAtMostOnce, nil)
	var got PublishPacket
	if err := got.Parse(raw); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.QoS != QoSAtMostOnce {
		t.Errorf("expected downgraded QoS 0, got %d", got.QoS)
	}
	if got.PacketID != nil {
		t.Error("downgraded QoS 0 encoding must not carry a packet id")
	}

	raw = pp.EncodeWithQoS(QoSAtLeastOnce, &id)
	if err := got.Parse(raw); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.PacketID == nil || *got.PacketID != id {
		t.Errorf("expected packet id %d preserved at QoS 1, got %v", id, got.PacketID)
	}
}

func TestPublishSizeMatchesEncode(t *testing.T) {
	id := uint16(1)
	pp := &PublishPacket{Topic: "a/b/c", Payload: []byte("payload"), QoS: QoSAtLeastOnce}
	if got, want := pp.Size(QoSAtLeastOnce), len(pp.EncodeWithQoS(QoSAtLeastOnce, &id)); got != want {
		t.Errorf("Size() = %d, len(EncodeWithQoS()) = %d", got, want)
	}
	if got, want := pp.Size(QoSAtMostOnce), len(pp.EncodeWithQoS(QoSAtMostOnce, nil)); got != want {
		t.Errorf("Size() = %d, len(EncodeWithQoS()) = %d", got, want)
	}
}

func TestPublishRejectsWildcardTopic(t *testing.T) {
	pp := &PublishPacket{}
	raw := (&PublishPacket{Topic: "a/#", Payload: []byte("x"), QoS: QoSAtMostOnce}).Encode()
	if err := pp.Parse(raw); err == nil {
		t.Error("expected error for PUBLISH topic containing a wildcard")
	}
}
