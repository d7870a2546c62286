package packet

import (
	"encoding/binary"

	"github.com/harrowgate/goqtt/pkg/er"
)

// PubrelPacket is the second leg of the QoS 2 handshake, sent by the
// publisher after a PUBREC to release the message (spec.md §4.8).
// Per MQTT 3.1.1 §2.2.2, its fixed header reserved bits are 0010.
type PubrelPacket struct {
	PacketID uint16
}

func NewPubRel(packetID uint16) []byte {
	return []byte{
		byte(PUBREL) | 0x02,
		0x02,
		byte(packetID >> 8),
		byte(packetID & 0xFF),
	}
}

func (p *PubrelPacket) Parse(raw []byte) error {
	if len(raw) != 4 {
		return &er.Err{Context: "Pubrel", Message: er.ErrInvalidPacketLength}
	}
	if PacketType(raw[0]&0xF0) != PUBREL {
		return &er.Err{Context: "Pubrel", Message: er.ErrInvalidPacketType}
	}
	if raw[0]&0x0F != 0x02 {
		return &er.Err{Context: "Pubrel, Fixed Header", Message: er.ErrInvalidPubrelFlags}
	}
	if raw[1] != 0x02 {
		return &er.Err{Context: "Pubrel", Message: er.ErrInvalidPacketLength}
	}
	p.PacketID = binary.BigEndian.Uint16(raw[2:4])
	return nil
}

func (p *PubrelPacket) Encode() []byte {
	return NewPubRel(p.PacketID)
}
