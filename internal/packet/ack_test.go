package packet

import "testing"

func TestAckPacketsEncodeParseRoundTrip(t *testing.T) {
	const id = uint16(1234)

	t.Run("puback", func(t *testing.T) {
		var got PubackPacket
		if err := got.Parse(NewPubAck(id)); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if got.PacketID != id {
			t.Errorf("got %d, want %d", got.PacketID, id)
		}
	})

	t.Run("pubrec", func(t *testing.T) {
		var got PubrecPacket
		if err := got.Parse(NewPubRec(id)); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if got.PacketID != id {
			t.Errorf("got %d, want %d", got.PacketID, id)
		}
	})

	t.Run("pubrel", func(t *testing.T) {
		var got PubrelPacket
		if err := got.Parse(NewPubRel(id)); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if got.PacketID != id {
			t.Errorf("got %d, want %d", got.PacketID, id)
		}
	})

	t.Run("pubcomp", func(t *testing.T) {
		var got PubcompPacket
		if err := got.Parse(NewPubComp(id)); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if got.PacketID != id {
			t.Errorf("got %d, want %d", got.PacketID, id)
		}
	})
}

func TestPubrelRejectsWrongReservedBits(t *testing.T) {
	raw := []byte{byte(PUBREL), 0x02, 0x00, 0x01} // missing the 0x02 reserved-bit flag
	var p PubrelPacket
	if err := p.Parse(raw); err == nil {
		t.Error("expected error for PUBREL with reserved bits != 0010")
	}
}
