package packet

import (
	"encoding/binary"

	"github.com/harrowgate/goqtt/pkg/er"
)

// PubrecPacket is the first acknowledgement of the QoS 2 handshake: the
// receiver of a QoS 2 PUBLISH sends this back (spec.md §4.7).
type PubrecPacket struct {
	PacketID uint16
}

func NewPubRec(packetID uint16) []byte {
	return []byte{
		byte(PUBREC),
		0x02,
		byte(packetID >> 8),
		byte(packetID & 0xFF),
	}
}

func (p *PubrecPacket) Parse(raw []byte) error {
	if len(raw) != 4 {
		return &er.Err{Context: "Pubrec", Message: er.ErrInvalidPacketLength}
	}
	if PacketType(raw[0]&0xF0) != PUBREC {
		return &er.Err{Context: "Pubrec", Message: er.ErrInvalidPacketType}
	}
	if raw[1] != 0x02 {
		return &er.Err{Context: "Pubrec", Message: er.ErrInvalidPacketLength}
	}
	p.PacketID = binary.BigEndian.Uint16(raw[2:4])
	return nil
}

func (p *PubrecPacket) Encode() []byte {
	return NewPubRec(p.PacketID)
}
