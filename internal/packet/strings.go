package packet

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/harrowgate/goqtt/pkg/er"
)

// DecodeString reads one MQTT UTF-8 string (2-byte big-endian length
// prefix) from the front of b, returning the string, the number of
// bytes consumed, and any error.
func DecodeString(b []byte) (string, int, error) {
	if len(b) < 2 {
		return "", 0, &er.Err{Context: "Decode", Message: er.ErrShortString}
	}

	length := int(binary.BigEndian.Uint16(b[:2]))
	if len(b) < 2+length {
		return "", 0, &er.Err{Context: "Decode", Message: er.ErrRemainingLenMissmatch}
	}

	s := string(b[2 : 2+length])
	if !utf8.ValidString(s) {
		return "", 0, &er.Err{Context: "Decode", Message: er.ErrInvalidUTF8String}
	}

	return s, 2 + length, nil
}

// EncodeString appends s to buf as a 2-byte big-endian length prefix
// followed by its bytes, returning the extended buffer.
func EncodeString(buf []byte, s string) []byte {
	length := make([]byte, 2)
	binary.BigEndian.PutUint16(length, uint16(len(s)))
	buf = append(buf, length...)
	buf = append(buf, s...)
	return buf
}

// EncodePacketID appends the 16-bit packet id to buf in big-endian order.
func EncodePacketID(buf []byte, id uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, id)
	return append(buf, b...)
}
