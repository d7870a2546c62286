package packet

import (
	"encoding/binary"

	"github.com/harrowgate/goqtt/pkg/er"
)

// PubcompPacket closes out the QoS 2 handshake, acknowledging a
// PUBREL (spec.md §4.9).
type PubcompPacket struct {
	PacketID uint16
}

func NewPubComp(packetID uint16) []byte {
	return []byte{
		byte(PUBCOMP),
		0x02,
		byte(packetID >> 8),
		byte(packetID & 0xFF),
	}
}

func (p *PubcompPacket) Parse(raw []byte) error {
	if len(raw) != 4 {
		return &er.Err{Context: "Pubcomp", Message: er.ErrInvalidPacketLength}
	}
	if PacketType(raw[0]&0xF0) != PUBCOMP {
		return &er.Err{Context: "Pubcomp", Message: er.ErrInvalidPacketType}
	}
	if raw[1] != 0x02 {
		return &er.Err{Context: "Pubcomp", Message: er.ErrInvalidPacketLength}
	}
	p.PacketID = binary.BigEndian.Uint16(raw[2:4])
	return nil
}

func (p *PubcompPacket) Encode() []byte {
	return NewPubComp(p.PacketID)
}
