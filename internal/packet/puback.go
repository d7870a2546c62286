package packet

import (
	"encoding/binary"

	"github.com/harrowgate/goqtt/pkg/er"
)

// PubackPacket acknowledges a QoS 1 PUBLISH, closing out that
// packet id's inflight entry (spec.md §4.6).
type PubackPacket struct {
	PacketID uint16
}

// NewPubAck builds the raw PUBACK bytes for packetID.
func NewPubAck(packetID uint16) []byte {
	return []byte{
		byte(PUBACK),
		0x02,
		byte(packetID >> 8),
		byte(packetID & 0xFF),
	}
}

func (p *PubackPacket) Parse(raw []byte) error {
	if len(raw) != 4 {
		return &er.Err{Context: "Puback", Message: er.ErrInvalidPacketLength}
	}
	if PacketType(raw[0]&0xF0) != PUBACK {
		return &er.Err{Context: "Puback", Message: er.ErrInvalidPacketType}
	}
	if raw[1] != 0x02 {
		return &er.Err{Context: "Puback", Message: er.ErrInvalidPacketLength}
	}
	p.PacketID = binary.BigEndian.Uint16(raw[2:4])
	return nil
}

func (p *PubackPacket) Encode() []byte {
	return NewPubAck(p.PacketID)
}
