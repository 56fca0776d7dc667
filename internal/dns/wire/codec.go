package wire

import (
	"fmt"

	"github.com/aeden/rrwalk/internal/dns/domain"
)

// MessageCodec encodes and decodes whole DNS messages. Each call
// constructs its own Buffer and nameCoder: compression state never
// survives past a single message, matching the wire format's own rule
// that pointers are only ever relative to the current packet.
type MessageCodec struct{}

// NewMessageCodec returns a MessageCodec. It carries no state of its
// own, so a single instance may be shared across goroutines.
func NewMessageCodec() *MessageCodec {
	return &MessageCodec{}
}

// Encode serializes msg into its wire representation.
func (c *MessageCodec) Encode(msg domain.Message) ([]byte, error) {
	buf := NewBuffer()
	nc := newNameCoder()

	if err := encodeHeader(buf, msg); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	for i, q := range msg.Questions {
		if err := encodeQuestion(nc, buf, q); err != nil {
			return nil, fmt.Errorf("encode question %d: %w", i, err)
		}
	}
	for _, section := range [][]domain.ResourceRecord{msg.Answers, msg.Authority, msg.Additional} {
		for i, rr := range section {
			if err := encodeResourceRecord(nc, buf, rr); err != nil {
				return nil, fmt.Errorf("encode record %d: %w", i, err)
			}
		}
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Decode parses data into a Message.
func (c *MessageCodec) Decode(data []byte) (domain.Message, error) {
	buf := NewBufferFrom(data)
	nc := newNameCoder()

	msg, counts, err := decodeHeader(buf)
	if err != nil {
		return domain.Message{}, fmt.Errorf("decode header: %w", err)
	}

	msg.Questions = make([]domain.Question, 0, counts.qd)
	for i := uint16(0); i < counts.qd; i++ {
		q, err := decodeQuestion(nc, buf)
		if err != nil {
			return domain.Message{}, fmt.Errorf("decode question %d: %w", i, err)
		}
		msg.Questions = append(msg.Questions, q)
	}

	for _, dst := range []struct {
		n     uint16
		slice *[]domain.ResourceRecord
	}{
		{counts.an, &msg.Answers},
		{counts.ns, &msg.Authority},
		{counts.ar, &msg.Additional},
	} {
		*dst.slice = make([]domain.ResourceRecord, 0, dst.n)
		for i := uint16(0); i < dst.n; i++ {
			rr, err := decodeResourceRecord(nc, buf)
			if err != nil {
				return domain.Message{}, fmt.Errorf("decode record %d: %w", i, err)
			}
			*dst.slice = append(*dst.slice, rr)
		}
	}

	return msg, nil
}

type sectionCounts struct {
	qd, an, ns, ar uint16
}

// encodeHeader writes the 12-byte DNS header, bit-packing the flag
// fields into their two option bytes per RFC 1035 §4.1.1.
func encodeHeader(buf *Buffer, msg domain.Message) error {
	if err := buf.PutUint16(msg.ID); err != nil {
		return err
	}

	var flags1 uint8
	if msg.IsResponse {
		flags1 |= 0x80
	}
	flags1 |= (msg.Opcode & 0x0F) << 3
	if msg.Authoritative {
		flags1 |= 0x04
	}
	if msg.Truncated {
		flags1 |= 0x02
	}
	if msg.RecursionDesired {
		flags1 |= 0x01
	}
	if err := buf.PutUint8(flags1); err != nil {
		return err
	}

	var flags2 uint8
	if msg.RecursionAvailable {
		flags2 |= 0x80
	}
	flags2 |= uint8(msg.RCode) & 0x0F
	if err := buf.PutUint8(flags2); err != nil {
		return err
	}

	if err := buf.PutUint16(uint16(len(msg.Questions))); err != nil {
		return err
	}
	if err := buf.PutUint16(uint16(len(msg.Answers))); err != nil {
		return err
	}
	if err := buf.PutUint16(uint16(len(msg.Authority))); err != nil {
		return err
	}
	return buf.PutUint16(uint16(len(msg.Additional)))
}

func decodeHeader(buf *Buffer) (domain.Message, sectionCounts, error) {
	id, err := buf.GetUint16()
	if err != nil {
		return domain.Message{}, sectionCounts{}, err
	}

	flags1, err := buf.GetUint8()
	if err != nil {
		return domain.Message{}, sectionCounts{}, err
	}
	isResponse := flags1&0x80 == 0x80
	opcode := (flags1 >> 3) & 0x0F
	authoritative := flags1>>2&0x01 == 1
	truncated := flags1>>1&0x01 == 1
	recursionDesired := flags1&0x01 == 1

	flags2, err := buf.GetUint8()
	if err != nil {
		return domain.Message{}, sectionCounts{}, err
	}
	recursionAvailable := flags2>>7&0x01 == 1
	rcode := domain.RCode(flags2 & 0x0F)
	if rcode > 5 {
		return domain.Message{}, sectionCounts{}, fmt.Errorf("%w: rcode %d", ErrInvalidPacket, rcode)
	}

	qd, err := buf.GetUint16()
	if err != nil {
		return domain.Message{}, sectionCounts{}, err
	}
	an, err := buf.GetUint16()
	if err != nil {
		return domain.Message{}, sectionCounts{}, err
	}
	ns, err := buf.GetUint16()
	if err != nil {
		return domain.Message{}, sectionCounts{}, err
	}
	ar, err := buf.GetUint16()
	if err != nil {
		return domain.Message{}, sectionCounts{}, err
	}

	msg := domain.Message{
		Header: domain.Header{
			ID:                 id,
			IsResponse:         isResponse,
			Opcode:             opcode,
			Authoritative:      authoritative,
			Truncated:          truncated,
			RecursionDesired:   recursionDesired,
			RecursionAvailable: recursionAvailable,
			RCode:              rcode,
		},
	}
	return msg, sectionCounts{qd: qd, an: an, ns: ns, ar: ar}, nil
}

func encodeQuestion(nc *nameCoder, buf *Buffer, q domain.Question) error {
	if q.Class != domain.RRClassIN {
		return fmt.Errorf("%w: got %v", ErrUnsupportedClass, q.Class)
	}
	if err := nc.EncodeName(buf, q.Name); err != nil {
		return err
	}
	if err := buf.PutUint16(uint16(q.Type)); err != nil {
		return err
	}
	return buf.PutUint16(uint16(q.Class))
}

func decodeQuestion(nc *nameCoder, buf *Buffer) (domain.Question, error) {
	name, err := nc.DecodeName(buf)
	if err != nil {
		return domain.Question{}, err
	}
	t, err := buf.GetUint16()
	if err != nil {
		return domain.Question{}, err
	}
	class, err := buf.GetUint16()
	if err != nil {
		return domain.Question{}, err
	}
	return domain.Question{Name: name, Type: domain.RRType(t), Class: domain.RRClass(class)}, nil
}

func encodeResourceRecord(nc *nameCoder, buf *Buffer, rr domain.ResourceRecord) error {
	if rr.Class != domain.RRClassIN {
		return fmt.Errorf("%w: got %v", ErrUnsupportedClass, rr.Class)
	}
	if err := nc.EncodeName(buf, rr.Name); err != nil {
		return err
	}
	if err := buf.PutUint16(uint16(rr.Type)); err != nil {
		return err
	}
	if err := buf.PutUint16(uint16(rr.Class)); err != nil {
		return err
	}
	if err := buf.PutUint32(rr.TTL); err != nil {
		return err
	}
	return encodeRDATA(nc, buf, rr.Data)
}

func decodeResourceRecord(nc *nameCoder, buf *Buffer) (domain.ResourceRecord, error) {
	name, err := nc.DecodeName(buf)
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	t, err := buf.GetUint16()
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	class, err := buf.GetUint16()
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	ttl, err := buf.GetUint32()
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	rdlength, err := buf.GetUint16()
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	data, err := decodeRDATA(nc, buf, domain.RRType(t), int(rdlength))
	if err != nil {
		return domain.ResourceRecord{}, err
	}
	return domain.ResourceRecord{Name: name, Type: domain.RRType(t), Class: domain.RRClass(class), TTL: ttl, Data: data}, nil
}
