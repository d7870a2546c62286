package packet

import "github.com/harrowgate/goqtt/pkg/er"

// MaxRemainingLength is the largest value the 4-byte variable-length
// remaining-length field can encode (MQTT 3.1.1 §2.2.3).
const MaxRemainingLength = 268435455

// EncodeRemainingLength encodes the remaining-length field per MQTT
// 3.1.1 §2.2.3: 7 bits per byte, continuation bit set while more
// bytes follow, at most 4 bytes.
func EncodeRemainingLength(length int) []byte {
	if length < 0 {
		return []byte{0}
	}

	var encoded []byte
	for {
		b := byte(length % 128)
		length /= 128
		if length > 0 {
			b |= 0x80
		}
		encoded = append(encoded, b)
		if length == 0 || len(encoded) >= 4 {
			break
		}
	}
	return encoded
}

// ParseRemainingLength decodes the remaining-length field from data,
// returning the decoded value, the number of bytes it occupied, and
// any error.
func ParseRemainingLength(data []byte) (int, int, error) {
	var length, multiplier, offset int
	multiplier = 1

	for {
		if offset >= len(data) {
			return 0, 0, &er.Err{Context: "RemainingLength", Message: er.ErrShortBuffer}
		}
		if offset >= 4 {
			return 0, 0, &er.Err{Context: "RemainingLength", Message: er.ErrRemainingLengthExceeded}
		}

		b := data[offset]
		length += int(b&0x7F) * multiplier
		if length > MaxRemainingLength {
			return 0, 0, &er.Err{Context: "RemainingLength", Message: er.ErrRemainingLengthExceeded}
		}

		multiplier *= 128
		offset++

		if b&0x80 == 0 {
			break
		}
	}

	return length, offset, nil
}
