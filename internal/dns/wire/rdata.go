package wire

import (
	"fmt"
	"net"

	"github.com/aeden/rrwalk/internal/dns/domain"
)

// encodeRDATA writes a record's RDATA, reserving two bytes for RDLENGTH
// up front and patching it once the payload's length is known — the
// same reserve-then-patch pattern used for every variable-length record.
func encodeRDATA(nc *nameCoder, buf *Buffer, data domain.RDATA) error {
	lengthOffset := buf.WriteCursor()
	if err := buf.PutUint16(0); err != nil {
		return err
	}
	payloadStart := buf.WriteCursor()

	var err error
	switch d := data.(type) {
	case domain.AData:
		ip4 := d.IP.To4()
		if ip4 == nil {
			return fmt.Errorf("%w: A record requires an IPv4 address, got %s", ErrUnsupportedRDATA, d.IP)
		}
		err = buf.PutBytes(ip4)
	case domain.AAAAData:
		ip16 := d.IP.To16()
		if ip16 == nil {
			return fmt.Errorf("%w: AAAA record requires an IPv6 address, got %s", ErrUnsupportedRDATA, d.IP)
		}
		err = buf.PutBytes(ip16)
	case domain.NSData:
		err = nc.EncodeName(buf, d.Target)
	case domain.CNAMEData:
		err = nc.EncodeName(buf, d.Target)
	case domain.PTRData:
		err = nc.EncodeName(buf, d.Target)
	case domain.MXData:
		if err = buf.PutUint16(d.Preference); err != nil {
			return err
		}
		err = nc.EncodeName(buf, d.Exchange)
	case domain.SOAData:
		if err = nc.EncodeName(buf, d.MName); err != nil {
			return err
		}
		if err = nc.EncodeName(buf, d.RName); err != nil {
			return err
		}
		for _, v := range []uint32{d.Serial, d.Refresh, d.Retry, d.Expire, d.Minimum} {
			if err = buf.PutUint32(v); err != nil {
				return err
			}
		}
	case domain.TXTData:
		for _, s := range d.Text {
			chunk := []byte(s)
			for len(chunk) > 0 {
				n := len(chunk)
				if n > 255 {
					n = 255
				}
				if err = buf.PutUint8(uint8(n)); err != nil {
					return err
				}
				if err = buf.PutBytes(chunk[:n]); err != nil {
					return err
				}
				chunk = chunk[n:]
			}
		}
	case domain.SRVData:
		if err = buf.PutUint16(d.Priority); err != nil {
			return err
		}
		if err = buf.PutUint16(d.Weight); err != nil {
			return err
		}
		if err = buf.PutUint16(d.Port); err != nil {
			return err
		}
		err = nc.EncodeName(buf, d.Target)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedRDATA, data)
	}
	if err != nil {
		return err
	}

	return buf.SetUint16At(lengthOffset, uint16(buf.WriteCursor()-payloadStart))
}

// decodeRDATA reads an already-typed record's RDATA. rdlength is the
// RDLENGTH field read by the caller, needed to bound TXT parsing. A
// record type without a structured decoder fails with ErrInvalidPacket.
func decodeRDATA(nc *nameCoder, buf *Buffer, rrtype domain.RRType, rdlength int) (domain.RDATA, error) {
	switch rrtype {
	case domain.RRTypeA:
		b, err := buf.GetBytes(4)
		if err != nil {
			return nil, err
		}
		return domain.AData{IP: net.IP(b)}, nil
	case domain.RRTypeAAAA:
		b, err := buf.GetBytes(16)
		if err != nil {
			return nil, err
		}
		return domain.AAAAData{IP: net.IP(b)}, nil
	case domain.RRTypeNS:
		name, err := nc.DecodeName(buf)
		if err != nil {
			return nil, err
		}
		return domain.NSData{Target: name}, nil
	case domain.RRTypeCNAME:
		name, err := nc.DecodeName(buf)
		if err != nil {
			return nil, err
		}
		return domain.CNAMEData{Target: name}, nil
	case domain.RRTypePTR:
		name, err := nc.DecodeName(buf)
		if err != nil {
			return nil, err
		}
		return domain.PTRData{Target: name}, nil
	case domain.RRTypeMX:
		pref, err := buf.GetUint16()
		if err != nil {
			return nil, err
		}
		exchange, err := nc.DecodeName(buf)
		if err != nil {
			return nil, err
		}
		return domain.MXData{Preference: pref, Exchange: exchange}, nil
	case domain.RRTypeSOA:
		mname, err := nc.DecodeName(buf)
		if err != nil {
			return nil, err
		}
		rname, err := nc.DecodeName(buf)
		if err != nil {
			return nil, err
		}
		vals := make([]uint32, 5)
		for i := range vals {
			if vals[i], err = buf.GetUint32(); err != nil {
				return nil, err
			}
		}
		return domain.SOAData{MName: mname, RName: rname, Serial: vals[0], Refresh: vals[1], Retry: vals[2], Expire: vals[3], Minimum: vals[4]}, nil
	case domain.RRTypeTXT:
		var texts []string
		remaining := rdlength
		for remaining > 0 {
			n, err := buf.GetUint8()
			if err != nil {
				return nil, err
			}
			remaining--
			chunk, err := buf.GetBytes(int(n))
			if err != nil {
				return nil, err
			}
			remaining -= int(n)
			texts = append(texts, string(chunk))
		}
		return domain.TXTData{Text: texts}, nil
	case domain.RRTypeSRV:
		priority, err := buf.GetUint16()
		if err != nil {
			return nil, err
		}
		weight, err := buf.GetUint16()
		if err != nil {
			return nil, err
		}
		port, err := buf.GetUint16()
		if err != nil {
			return nil, err
		}
		target, err := nc.DecodeName(buf)
		if err != nil {
			return nil, err
		}
		return domain.SRVData{Priority: priority, Weight: weight, Port: port, Target: target}, nil
	default:
		return nil, fmt.Errorf("%w: unknown RR type %d in RDATA", ErrInvalidPacket, rrtype)
	}
}
