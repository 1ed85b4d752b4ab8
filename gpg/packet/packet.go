// Package packet decodes the legacy OpenPGP packet format and the v4 key,
// user id and signature packets carried in it. See RFC 4880, section 4.
package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xpgp/gpg", "packet")

// Tag identifies the type of a packet. See RFC 4880, section 4.3.
type Tag uint8

// Packet tags
const (
	TagSignature    Tag = 2
	TagPublicKey    Tag = 6
	TagTrust        Tag = 12
	TagUserID       Tag = 13
	TagPublicSubkey Tag = 14
)

// String returns the packet tag name
func (t Tag) String() string {
	switch t {
	case TagSignature:
		return "signature"
	case TagPublicKey:
		return "public_key"
	case TagTrust:
		return "trust"
	case TagUserID:
		return "user_id"
	case TagPublicSubkey:
		return "public_subkey"
	}
	return fmt.Sprintf("tag_%d", uint8(t))
}

// LengthType is the two low bits of a legacy packet header, selecting the
// width of the length field that follows the header octet.
type LengthType uint8

// Length types
const (
	LengthOneOctet   LengthType = 0
	LengthTwoOctets  LengthType = 1
	LengthFourOctets LengthType = 2
	// LengthIndeterminate is valid OpenPGP but not supported by this decoder.
	LengthIndeterminate LengthType = 3
)

// Size returns the number of octets in the length field
func (l LengthType) Size() int {
	switch l {
	case LengthOneOctet:
		return 1
	case LengthTwoOctets:
		return 2
	case LengthFourOctets:
		return 4
	}
	return 0
}

func (l LengthType) max() uint64 {
	return 1<<(8*uint(l.Size())) - 1
}

// RawPacket is one length-delimited packet of a legacy stream.
type RawPacket struct {
	Tag        Tag
	LengthType LengthType
	Body       []byte
}

// NewRawPacket returns a packet using the shortest length field that fits body
func NewRawPacket(tag Tag, body []byte) *RawPacket {
	lt := LengthOneOctet
	switch {
	case len(body) > 0xffff:
		lt = LengthFourOctets
	case len(body) > 0xff:
		lt = LengthTwoOctets
	}
	return &RawPacket{Tag: tag, LengthType: lt, Body: body}
}

// Bytes returns the wire encoding of the packet, header included
func (p *RawPacket) Bytes() ([]byte, error) {
	hdr, err := EncodeHeader(p.Tag, p.LengthType, len(p.Body))
	if err != nil {
		return nil, err
	}
	return append(hdr, p.Body...), nil
}

// EncodeHeader returns a legacy packet header for a body of the given length
func EncodeHeader(tag Tag, lt LengthType, length int) ([]byte, error) {
	if tag > 15 {
		return nil, errors.Errorf("tag %d does not fit a legacy header", tag)
	}
	size := lt.Size()
	if size == 0 {
		return nil, errors.Errorf("unsupported length type %d", lt)
	}
	if length < 0 || uint64(length) > lt.max() {
		return nil, errors.Errorf("length %d does not fit length type %d", length, lt)
	}

	hdr := make([]byte, 1+size)
	hdr[0] = 0x80 | byte(tag)<<2 | byte(lt)
	switch lt {
	case LengthOneOctet:
		hdr[1] = byte(length)
	case LengthTwoOctets:
		binary.BigEndian.PutUint16(hdr[1:], uint16(length))
	case LengthFourOctets:
		binary.BigEndian.PutUint32(hdr[1:], uint32(length))
	}
	return hdr, nil
}

// Reader splits a buffer into legacy packets.
type Reader struct {
	buf []byte
}

// NewReader returns a Reader over buf. The buffer is not copied.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Next returns the next packet, or nil when the input is exhausted or no
// longer starts with a legacy packet header. In the latter case Remainder
// returns the unconsumed bytes.
func (r *Reader) Next() (*RawPacket, error) {
	if len(r.buf) == 0 {
		return nil, nil
	}

	hdr := r.buf[0]
	// bits 7-6 must be 10: new format packets have bit 6 set
	if hdr&0xc0 != 0x80 {
		logger.KV(xlog.DEBUG, "reason", "not_legacy_header", "header", fmt.Sprintf("0x%02X", hdr), "remaining", len(r.buf))
		return nil, nil
	}
	lt := LengthType(hdr & 0x03)
	size := lt.Size()
	if size == 0 {
		logger.KV(xlog.DEBUG, "reason", "indeterminate_length", "remaining", len(r.buf))
		return nil, nil
	}

	rest := r.buf[1:]
	if len(rest) < size {
		return nil, errors.Wrapf(ErrMalformedHeader, "length field needs %d bytes, %d remaining", size, len(rest))
	}

	var length uint64
	switch lt {
	case LengthOneOctet:
		length = uint64(rest[0])
	case LengthTwoOctets:
		length = uint64(binary.BigEndian.Uint16(rest))
	case LengthFourOctets:
		length = uint64(binary.BigEndian.Uint32(rest))
	}
	rest = rest[size:]
	if length > uint64(len(rest)) {
		return nil, errors.Wrapf(ErrMalformedHeader, "declared length %d, %d remaining", length, len(rest))
	}

	p := &RawPacket{
		Tag:        Tag((hdr >> 2) & 0x0f),
		LengthType: lt,
		Body:       rest[:length:length],
	}
	r.buf = rest[length:]
	return p, nil
}

// Remainder returns the bytes not consumed by Next
func (r *Reader) Remainder() []byte {
	return r.buf
}
