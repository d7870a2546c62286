package packet

import "github.com/harrowgate/goqtt/pkg/er"

// Parse decodes one complete control packet (fixed header through the
// end of its payload, as already framed by the reactor's read loop)
// into a ParsedPacket. Only the field matching the returned Type is set.
func Parse(raw []byte) (*ParsedPacket, error) {
	if len(raw) < 2 {
		return nil, &er.Err{Context: "Parse", Message: er.ErrEmptyBuffer}
	}

	pp := &ParsedPacket{
		Type: Type(raw[0]),
		Raw:  raw,
	}

	switch pp.Type {
	case CONNECT:
		c := &ConnectPacket{}
		if err := c.Parse(raw); err != nil {
			return nil, err
		}
		pp.Connect = c

	case PUBLISH:
		p := &PublishPacket{}
		if err := p.Parse(raw); err != nil {
			return nil, err
		}
		pp.Publish = p

	case PUBACK:
		a := &PubackPacket{}
		if err := a.Parse(raw); err != nil {
			return nil, err
		}
		pp.Puback = a

	case PUBREC:
		r := &PubrecPacket{}
		if err := r.Parse(raw); err != nil {
			return nil, err
		}
		pp.Pubrec = r

	case PUBREL:
		r := &PubrelPacket{}
		if err := r.Parse(raw); err != nil {
			return nil, err
		}
		pp.Pubrel = r

	case PUBCOMP:
		c := &PubcompPacket{}
		if err := c.Parse(raw); err != nil {
			return nil, err
		}
		pp.Pubcomp = c

	case SUBSCRIBE:
		s := &SubscribePacket{}
		if err := s.Parse(raw); err != nil {
			return nil, err
		}
		pp.Subscribe = s

	case UNSUBSCRIBE:
		u := &UnsubscribePacket{}
		if err := u.Parse(raw); err != nil {
			return nil, err
		}
		pp.Unsubscribe = u

	case PINGREQ:
		p := &PingreqPacket{}
		if err := p.Parse(raw); err != nil {
			return nil, err
		}
		pp.Pingreq = p

	case DISCONNECT:
		d := &DisconnectPacket{}
		if err := d.Parse(raw); err != nil {
			return nil, err
		}
		pp.Disconnect = d

	default:
		return nil, &er.Err{Context: "Parse", Message: er.ErrInvalidPacketType}
	}

	return pp, nil
}
