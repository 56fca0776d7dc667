package wire

import (
	"fmt"
	"strings"

	"github.com/aeden/rrwalk/internal/dns/domain"
)

// nameCoder carries the compression state for a single message. A new
// nameCoder must be created per encode or decode pass: the maps are
// only meaningful relative to one buffer's offsets.
//
// encoded memoizes only the first occurrence of each *complete* name,
// keyed by its offset in the buffer being written — a deliberate
// simplification also present upstream: a name is only pointed back to
// if it was previously written in full, never to a suffix that only
// happened to appear as part of a longer name's encoding.
//
// decoded is keyed by every label-suffix offset visited while decoding,
// not just whole-name offsets, so a pointer landing mid-way through a
// previously decoded name still resolves.
type nameCoder struct {
	encoded map[string]int
	decoded map[int]string
}

func newNameCoder() *nameCoder {
	return &nameCoder{
		encoded: make(map[string]int),
		decoded: make(map[int]string),
	}
}

// EncodeName writes name in label-sequence form, substituting a
// compression pointer if this exact name was already written earlier in
// the message.
func (nc *nameCoder) EncodeName(buf *Buffer, name domain.Name) error {
	if offset, ok := nc.encoded[name.CacheKey()]; ok {
		return writePointer(buf, offset)
	}

	wireLen := 1
	for _, label := range name.Labels() {
		if len(label) == 0 {
			continue
		}
		if len(label) > 63 {
			return fmt.Errorf("%w: label %q longer than 63 bytes", ErrInvalidLabelLength, label)
		}
		wireLen += len(label) + 1
	}
	if wireLen > 255 {
		return fmt.Errorf("%w: %q encodes to %d bytes", ErrInvalidNameLength, name, wireLen)
	}

	start := buf.WriteCursor()
	if start <= 0x3FFF {
		nc.encoded[name.CacheKey()] = start
	}

	for _, label := range name.Labels() {
		if len(label) == 0 {
			continue
		}
		if err := buf.PutUint8(uint8(len(label))); err != nil {
			return err
		}
		if err := buf.PutBytes([]byte(label)); err != nil {
			return err
		}
	}
	return buf.PutUint8(0)
}

func writePointer(buf *Buffer, offset int) error {
	return buf.PutUint16(0xC000 | uint16(offset))
}

// maxCompressionHops bounds the number of pointer hops a single decode
// may follow, guarding against a pointer cycle in a malformed packet.
const maxCompressionHops = 32

// DecodeName reads a name, following at most one compression pointer
// (the pointer target itself may already have been resolved through an
// earlier pointer, since every suffix offset decoded so far is
// remembered).
func (nc *nameCoder) DecodeName(buf *Buffer) (domain.Name, error) {
	var labels []string
	var labelOffsets []int

	hops := 0
	for {
		start := buf.ReadCursor()
		length, err := buf.GetUint8()
		if err != nil {
			return "", err
		}
		if length == 0 {
			break
		}
		if length&0xC0 == 0xC0 {
			hops++
			if hops > maxCompressionHops {
				return "", ErrTooManyCompressions
			}
			lo, err := buf.GetUint8()
			if err != nil {
				return "", err
			}
			pointer := int(length&0x3F)<<8 | int(lo)
			suffix, ok := nc.decoded[pointer]
			if !ok {
				return "", fmt.Errorf("%w: no label registered at offset %d", ErrCompression, pointer)
			}
			labels = append(labels, suffix)
			nc.registerSuffixes(labels, labelOffsets)
			return domain.Name("." + strings.Join(labels, ".")), nil
		}

		label, err := buf.GetBytes(int(length))
		if err != nil {
			return "", err
		}
		labels = append(labels, string(label))
		labelOffsets = append(labelOffsets, start)
	}

	nc.registerSuffixes(labels, labelOffsets)
	if len(labels) == 0 {
		return domain.Root, nil
	}
	return domain.Name("." + strings.Join(labels, ".")), nil
}

// registerSuffixes records, for every offset a plain label was read
// from, the full dotted suffix starting at that label — so a later
// pointer into the middle of this name still resolves to the right
// remainder.
func (nc *nameCoder) registerSuffixes(labels []string, offsets []int) {
	for i, offset := range offsets {
		if i >= len(labels) {
			break
		}
		nc.decoded[offset] = strings.Join(labels[i:], ".")
	}
}
