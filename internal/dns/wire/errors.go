package wire

import "errors"

// Wire-level error vocabulary. Every fallible decode/encode step returns
// one of these (or one wrapping it via fmt.Errorf("%w", ...)) so callers
// can use errors.Is instead of matching on string content.
var (
	ErrBufferFull          = errors.New("wire: buffer full")
	ErrBufferEmpty         = errors.New("wire: buffer empty")
	ErrInvalidPacket       = errors.New("wire: invalid packet")
	ErrCompression         = errors.New("wire: bad compression pointer")
	ErrInvalidLabelLength  = errors.New("wire: invalid label length")
	ErrInvalidNameLength   = errors.New("wire: invalid name length")
	ErrUnsupportedRDATA    = errors.New("wire: unsupported rdata type")
	ErrUnsupportedClass    = errors.New("wire: class must be IN")
	ErrTooManyCompressions = errors.New("wire: compression pointer chain too long")
)
