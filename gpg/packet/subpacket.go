package packet

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// SubpacketType is the type octet of a signature subpacket, with the
// critical bit masked off. See RFC 4880, section 5.2.3.1.
type SubpacketType uint8

// Subpacket types
const (
	SubpacketCreationTime         SubpacketType = 2
	SubpacketSignatureExpiration  SubpacketType = 3
	SubpacketKeyExpiration        SubpacketType = 9
	SubpacketPreferredSymmetric   SubpacketType = 11
	SubpacketIssuer               SubpacketType = 16
	SubpacketPreferredHash        SubpacketType = 21
	SubpacketPreferredCompression SubpacketType = 22
	SubpacketKeyServerPreferences SubpacketType = 23
	SubpacketPrimaryUserID        SubpacketType = 25
	SubpacketKeyFlags             SubpacketType = 27
	SubpacketFeatures             SubpacketType = 30
	SubpacketIssuerFingerprint    SubpacketType = 33
)

const (
	subpacketCriticalBit            = 0x80
	subpacketTwoOctetLengthFirstOct = 192
	subpacketTwoOctetLengthMax      = 16319
)

var subpacketNames = map[SubpacketType]string{
	SubpacketCreationTime:         "creation_time",
	SubpacketSignatureExpiration:  "signature_expiration",
	SubpacketKeyExpiration:        "key_expiration",
	SubpacketPreferredSymmetric:   "preferred_symmetric",
	SubpacketIssuer:               "issuer",
	SubpacketPreferredHash:        "preferred_hash",
	SubpacketPreferredCompression: "preferred_compression",
	SubpacketKeyServerPreferences: "key_server_preferences",
	SubpacketPrimaryUserID:        "primary_user_id",
	SubpacketKeyFlags:             "key_flags",
	SubpacketFeatures:             "features",
	SubpacketIssuerFingerprint:    "issuer_fingerprint",
}

// String returns the subpacket type name
func (t SubpacketType) String() string {
	if s, ok := subpacketNames[t]; ok {
		return s
	}
	return fmt.Sprintf("subpacket_%d", uint8(t))
}

// KeyFlags is the first octet of the key flags subpacket
type KeyFlags uint8

// Key flags
const (
	FlagCertify               KeyFlags = 0x01
	FlagSign                  KeyFlags = 0x02
	FlagEncryptCommunications KeyFlags = 0x04
	FlagEncryptStorage        KeyFlags = 0x08
	FlagSplitKey              KeyFlags = 0x10
	FlagAuthenticate          KeyFlags = 0x20
	FlagGroupKey              KeyFlags = 0x80
)

var keyFlagNames = []struct {
	flag KeyFlags
	name string
}{
	{FlagCertify, "certify"},
	{FlagSign, "sign"},
	{FlagEncryptCommunications, "encrypt_communications"},
	{FlagEncryptStorage, "encrypt_storage"},
	{FlagSplitKey, "split_key"},
	{FlagAuthenticate, "authenticate"},
	{FlagGroupKey, "group_key"},
}

// Has returns true if all bits of flag are set
func (f KeyFlags) Has(flag KeyFlags) bool {
	return f&flag == flag
}

// String returns comma separated flag names
func (f KeyFlags) String() string {
	var names []string
	for _, kf := range keyFlagNames {
		if f.Has(kf.flag) {
			names = append(names, kf.name)
		}
	}
	return strings.Join(names, ",")
}

// Subpacket is one signature subpacket
type Subpacket struct {
	Type     SubpacketType
	Critical bool
	Payload  []byte
}

// Encode returns the wire encoding of the subpacket
func (sp *Subpacket) Encode() []byte {
	typ := byte(sp.Type)
	if sp.Critical {
		typ |= subpacketCriticalBit
	}
	out := EncodeSubpacketLength(len(sp.Payload) + 1)
	out = append(out, typ)
	return append(out, sp.Payload...)
}

// Subpackets is a parsed subpacket area. All keeps every subpacket in wire
// order, the other fields hold the interpreted values of recognized types.
// When a type repeats, the last occurrence wins.
type Subpackets struct {
	All []*Subpacket

	CreationTime         *time.Time
	SigLifetimeSecs      *uint32
	KeyLifetimeSecs      *uint32
	PreferredSymmetric   []uint8
	IssuerKeyID          *uint64
	PreferredHash        []uint8
	PreferredCompression []uint8
	KeyServerPreferences []byte
	PrimaryUserID        *bool
	KeyFlags             *KeyFlags
	Features             []byte
	IssuerFingerprint    []byte
}

// ReadSubpacketLength decodes a subpacket length from the start of buf and
// returns the length and the number of octets used by the length field.
func ReadSubpacketLength(buf []byte) (length int, n int, err error) {
	if len(buf) == 0 {
		return 0, 0, errors.Wrap(ErrTruncatedSubpacket, "missing length")
	}
	b0 := buf[0]
	switch {
	case b0 < subpacketTwoOctetLengthFirstOct:
		return int(b0), 1, nil
	case b0 < 255:
		if len(buf) < 2 {
			return 0, 0, errors.Wrap(ErrTruncatedSubpacket, "two-octet length needs 2 bytes")
		}
		return (int(b0)-subpacketTwoOctetLengthFirstOct)<<8 + int(buf[1]) + subpacketTwoOctetLengthFirstOct, 2, nil
	default:
		if len(buf) < 5 {
			return 0, 0, errors.Wrapf(ErrTruncatedSubpacket, "five-octet length needs 5 bytes, %d remaining", len(buf))
		}
		l := binary.BigEndian.Uint32(buf[1:5])
		if l > math.MaxInt32 {
			return 0, 0, errors.Wrapf(ErrTruncatedSubpacket, "five-octet length %d is too large", l)
		}
		return int(l), 5, nil
	}
}

// EncodeSubpacketLength returns the shortest encoding of length
func EncodeSubpacketLength(length int) []byte {
	switch {
	case length < subpacketTwoOctetLengthFirstOct:
		return []byte{byte(length)}
	case length <= subpacketTwoOctetLengthMax:
		l := length - subpacketTwoOctetLengthFirstOct
		return []byte{byte(l>>8) + subpacketTwoOctetLengthFirstOct, byte(l)}
	default:
		out := make([]byte, 5)
		out[0] = 255
		binary.BigEndian.PutUint32(out[1:], uint32(length))
		return out
	}
}

// ParseSubpackets parses a whole subpacket area.
// Unrecognized types are kept in All and never fail the parse.
func ParseSubpackets(area []byte) (*Subpackets, error) {
	s := &Subpackets{}
	for len(area) > 0 {
		length, n, err := ReadSubpacketLength(area)
		if err != nil {
			return nil, err
		}
		area = area[n:]
		if length == 0 {
			return nil, errors.Wrap(ErrTruncatedSubpacket, "zero length subpacket")
		}
		if length > len(area) {
			return nil, errors.Wrapf(ErrTruncatedSubpacket, "declared length %d, %d remaining", length, len(area))
		}

		sp := &Subpacket{
			Type:     SubpacketType(area[0] &^ subpacketCriticalBit),
			Critical: area[0]&subpacketCriticalBit != 0,
			Payload:  area[1:length:length],
		}
		area = area[length:]

		s.All = append(s.All, sp)
		s.interpret(sp)
	}
	return s, nil
}

// Find returns the last subpacket of the given type, or nil
func (s *Subpackets) Find(t SubpacketType) *Subpacket {
	for i := len(s.All) - 1; i >= 0; i-- {
		if s.All[i].Type == t {
			return s.All[i]
		}
	}
	return nil
}

func (s *Subpackets) interpret(sp *Subpacket) {
	p := sp.Payload
	switch sp.Type {
	case SubpacketCreationTime:
		if len(p) == 4 {
			t := time.Unix(int64(binary.BigEndian.Uint32(p)), 0).UTC()
			s.CreationTime = &t
			return
		}
	case SubpacketSignatureExpiration:
		if len(p) == 4 {
			v := binary.BigEndian.Uint32(p)
			s.SigLifetimeSecs = &v
			return
		}
	case SubpacketKeyExpiration:
		if len(p) == 4 {
			v := binary.BigEndian.Uint32(p)
			s.KeyLifetimeSecs = &v
			return
		}
	case SubpacketPreferredSymmetric:
		s.PreferredSymmetric = p
		return
	case SubpacketIssuer:
		if len(p) == 8 {
			v := binary.BigEndian.Uint64(p)
			s.IssuerKeyID = &v
			return
		}
	case SubpacketPreferredHash:
		s.PreferredHash = p
		return
	case SubpacketPreferredCompression:
		s.PreferredCompression = p
		return
	case SubpacketKeyServerPreferences:
		s.KeyServerPreferences = p
		return
	case SubpacketPrimaryUserID:
		if len(p) == 1 {
			v := p[0] != 0
			s.PrimaryUserID = &v
			return
		}
	case SubpacketKeyFlags:
		if len(p) > 0 {
			v := KeyFlags(p[0])
			s.KeyFlags = &v
			return
		}
	case SubpacketFeatures:
		s.Features = p
		return
	case SubpacketIssuerFingerprint:
		// version octet followed by the fingerprint
		if len(p) > 1 {
			s.IssuerFingerprint = p[1:]
			return
		}
	default:
		logger.KV(xlog.TRACE, "reason", "unknown_subpacket", "type", uint8(sp.Type), "critical", sp.Critical, "len", len(p))
		return
	}
	logger.KV(xlog.DEBUG, "reason", "unexpected_subpacket_size", "type", sp.Type.String(), "len", len(p))
}
