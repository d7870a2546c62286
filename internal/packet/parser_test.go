package packet

import "testing"

func TestParseDispatchesByType(t *testing.T) {
	t.Run("connect", func(t *testing.T) {
		pp, err := Parse(encodeConnect("c1", true, 30))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if pp.Type != CONNECT || pp.Connect == nil {
			t.Errorf("expected a populated Connect field, got %+v", pp)
		}
	})

	t.Run("publish", func(t *testing.T) {
		raw := (&PublishPacket{Topic: "a", Payload: []byte("x"), QoS: QoSAtMostOnce}).Encode()
		pp, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if pp.Type != PUBLISH || pp.Publish == nil {
			t.Errorf("expected a populated Publish field, got %+v", pp)
		}
	})

	t.Run("pingreq", func(t *testing.T) {
		pp, err := Parse([]byte{byte(PINGREQ), 0x00})
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if pp.Type != PINGREQ || pp.Pingreq == nil {
			t.Errorf("expected a populated Pingreq field, got %+v", pp)
		}
	})

	t.Run("disconnect", func(t *testing.T) {
		pp, err := Parse([]byte{byte(DISCONNECT), 0x00})
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if pp.Type != DISCONNECT || pp.Disconnect == nil {
			t.Errorf("expected a populated Disconnect field, got %+v", pp)
		}
	})
}

func TestParseRejectsUnknownType(t *testing.T) {
	if _, err := Parse([]byte{0xF0, 0x00}); err == nil {
		t.Error("expected error for an unrecognized control packet type")
	}
}

func TestParseRejectsTooShort(t *testing.T) {
	if _, err := Parse([]byte{0x10}); err == nil {
		t.Error("expected error for a buffer shorter than a fixed header")
	}
}
