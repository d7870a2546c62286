package packet

import "testing"

func encodeSubscribe(packetID uint16, filters []SubscribeFilter) []byte {
	var payload []byte
	for _, f := range filters {
		payload = EncodeString(payload, f.Topic)
		payload = append(payload, byte(f.QoS))
	}

	var variable []byte
	variable = EncodePacketID(variable, packetID)
	variable = append(variable, payload...)

	out := []byte{byte(SUBSCRIBE) | 0x02}
	out = append(out, EncodeRemainingLength(len(variable))...)
	out = append(out, variable...)
	return out
}

func TestSubscribeParse(t *testing.T) {
	raw := encodeSubscribe(10, []SubscribeFilter{
		{Topic: "a/b", QoS: QoSAtLeastOnce},
		{Topic: "c/d/#", QoS: QoSExactlyOnce},
	})

	var sp SubscribePacket
	if err := sp.Parse(raw); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sp.PacketID != 10 {
		t.Errorf("PacketID = %d, want 10", sp.PacketID)
	}
	if len(sp.Filters) != 2 {
		t.Fatalf("got %d filters, want 2", len(sp.Filters))
	}
	if sp.Filters[0].Topic != "a/b" || sp.Filters[0].QoS != QoSAtLeastOnce {
		t.Errorf("filter 0 = %+v", sp.Filters[0])
	}
	if sp.Filters[1].Topic != "c/d/#" || sp.Filters[1].QoS != QoSExactlyOnce {
		t.Errorf("filter 1 = %+v", sp.Filters[1])
	}
}

func TestSubscribeRejectsBadReservedFlags(t *testing.T) {
	raw := encodeSubscribe(1, []SubscribeFilter{{Topic: "a", QoS: QoSAtMostOnce}})
	raw[0] = byte(SUBSCRIBE) // reserved bits cleared instead of 0010

	var sp SubscribePacket
	if err := sp.Parse(raw); err == nil {
		t.Error("expected error for SUBSCRIBE with reserved bits != 0010")
	}
}

func TestSubscribeRejectsMultiLevelWildcardNotLast(t *testing.T) {
	raw := encodeSubscribe(1, []SubscribeFilter{{Topic: "a/#/b", QoS: QoSAtMostOnce}})

	var sp SubscribePacket
	if err := sp.Parse(raw); err == nil {
		t.Error("expected error for '#' not in final position")
	}
}

func TestNewSubAckWithCodes(t *testing.T) {
	codes := []byte{SubackMaxQoS1, SubackFailure}
	ack := NewSubAckWithCodes(10, codes)
	raw := ack.Encode()

	var got SubackPacket
	if err := got.Parse(raw); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.PacketID != 10 {
		t.Errorf("PacketID = %d, want 10", got.PacketID)
	}
	if len(got.ReturnCodes) != 2 || got.ReturnCodes[0] != SubackMaxQoS1 || got.ReturnCodes[1] != SubackFailure {
		t.Errorf("ReturnCodes = %v", got.ReturnCodes)
	}
}
