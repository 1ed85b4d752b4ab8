package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// SignatureType is the signature type octet. See RFC 4880, section 5.2.1.
type SignatureType uint8

// Signature types
const (
	SigTypeBinary            SignatureType = 0x00
	SigTypeText              SignatureType = 0x01
	SigTypeGenericCert       SignatureType = 0x10
	SigTypePersonaCert       SignatureType = 0x11
	SigTypeCasualCert        SignatureType = 0x12
	SigTypePositiveCert      SignatureType = 0x13
	SigTypeSubkeyBinding     SignatureType = 0x18
	SigTypePrimaryKeyBinding SignatureType = 0x19
	SigTypeDirectSignature   SignatureType = 0x1f
	SigTypeKeyRevocation     SignatureType = 0x20
	SigTypeSubkeyRevocation  SignatureType = 0x28
	SigTypeCertRevocation    SignatureType = 0x30
	SigTypeTimestamp         SignatureType = 0x40
	SigTypeThirdPartyConfirm SignatureType = 0x50
)

var sigTypeNames = map[SignatureType]string{
	SigTypeBinary:            "binary",
	SigTypeText:              "text",
	SigTypeGenericCert:       "generic_certification",
	SigTypePersonaCert:       "persona_certification",
	SigTypeCasualCert:        "casual_certification",
	SigTypePositiveCert:      "positive_certification",
	SigTypeSubkeyBinding:     "subkey_binding",
	SigTypePrimaryKeyBinding: "primary_key_binding",
	SigTypeDirectSignature:   "direct_key",
	SigTypeKeyRevocation:     "key_revocation",
	SigTypeSubkeyRevocation:  "subkey_revocation",
	SigTypeCertRevocation:    "certification_revocation",
	SigTypeTimestamp:         "timestamp",
	SigTypeThirdPartyConfirm: "third_party_confirmation",
}

// String returns the signature type name
func (t SignatureType) String() string {
	if s, ok := sigTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("sig_type_0x%02X", uint8(t))
}

// IsCertification returns true for user id certifications, 0x10 to 0x13
func (t SignatureType) IsCertification() bool {
	return t >= SigTypeGenericCert && t <= SigTypePositiveCert
}

// IsKeyBinding returns true for subkey and primary key bindings
func (t SignatureType) IsKeyBinding() bool {
	return t == SigTypeSubkeyBinding || t == SigTypePrimaryKeyBinding
}

// Signature is a v4 signature packet. See RFC 4880, section 5.2.3.
type Signature struct {
	Version      uint8
	SigType      SignatureType
	PubKeyAlgo   PublicKeyAlgorithm
	HashAlgo     HashAlgorithm
	HashedArea   []byte
	UnhashedArea []byte
	QuickCheck   [2]byte
	// Value is everything after the quick-check
	Value []byte
	// RSASignature is set for the RSA family
	RSASignature *MPI

	Hashed   *Subpackets
	Unhashed *Subpackets
}

// ParseSignature decodes a signature packet body
func ParseSignature(body []byte) (*Signature, error) {
	if len(body) < 1 {
		return nil, errors.Wrap(ErrMalformedPacket, "empty signature packet")
	}
	if body[0] != 4 {
		return nil, errors.Wrapf(ErrUnsupportedSignatureVersion, "version %d", body[0])
	}
	if len(body) < 6 {
		return nil, errors.Wrapf(ErrMalformedPacket, "signature packet needs 6 bytes, got %d", len(body))
	}

	sig := &Signature{
		Version:    body[0],
		SigType:    SignatureType(body[1]),
		PubKeyAlgo: PublicKeyAlgorithm(body[2]),
		HashAlgo:   HashAlgorithm(body[3]),
	}

	var err error
	rest := body[4:]
	sig.HashedArea, rest, err = readArea(rest, "hashed")
	if err != nil {
		return nil, err
	}
	sig.UnhashedArea, rest, err = readArea(rest, "unhashed")
	if err != nil {
		return nil, err
	}
	if len(rest) < 2 {
		return nil, errors.Wrap(ErrMalformedPacket, "missing quick-check")
	}
	copy(sig.QuickCheck[:], rest[:2])
	sig.Value = rest[2:]

	if sig.PubKeyAlgo.IsRSA() {
		var trailing []byte
		sig.RSASignature, trailing, err = ReadMPI(sig.Value)
		if err != nil {
			return nil, errors.Wrap(err, "RSA signature")
		}
		if len(trailing) > 0 {
			logger.KV(xlog.DEBUG, "reason", "trailing_signature_bytes", "len", len(trailing))
		}
	}

	sig.Hashed, err = ParseSubpackets(sig.HashedArea)
	if err != nil {
		return nil, errors.Wrap(err, "hashed subpackets")
	}
	sig.Unhashed, err = ParseSubpackets(sig.UnhashedArea)
	if err != nil {
		return nil, errors.Wrap(err, "unhashed subpackets")
	}

	return sig, nil
}

func readArea(buf []byte, name string) (area, rest []byte, err error) {
	if len(buf) < 2 {
		return nil, nil, errors.Wrapf(ErrMalformedPacket, "missing %s subpacket length", name)
	}
	l := int(binary.BigEndian.Uint16(buf))
	buf = buf[2:]
	if len(buf) < l {
		return nil, nil, errors.Wrapf(ErrMalformedPacket, "%s subpackets declare %d bytes, %d remaining", name, l, len(buf))
	}
	return buf[:l:l], buf[l:], nil
}

// IssuerKeyID returns the issuer key id from the hashed area, then the
// unhashed area, or nil
func (sig *Signature) IssuerKeyID() *uint64 {
	if sig.Hashed != nil && sig.Hashed.IssuerKeyID != nil {
		return sig.Hashed.IssuerKeyID
	}
	if sig.Unhashed != nil {
		return sig.Unhashed.IssuerKeyID
	}
	return nil
}

// HashSuffix returns the bytes appended to the signed message:
// the hashed fields followed by the v4 trailer.
func (sig *Signature) HashSuffix() []byte {
	l := 6 + len(sig.HashedArea)
	out := make([]byte, 0, l+6)
	out = append(out,
		sig.Version,
		byte(sig.SigType),
		byte(sig.PubKeyAlgo),
		byte(sig.HashAlgo),
		byte(len(sig.HashedArea)>>8),
		byte(len(sig.HashedArea)),
	)
	out = append(out, sig.HashedArea...)
	out = append(out, sig.Version, 0xff)
	return binary.BigEndian.AppendUint32(out, uint32(l))
}

// Digest hashes the message parts followed by HashSuffix
func (sig *Signature) Digest(message ...[]byte) ([]byte, error) {
	ch, err := sig.HashAlgo.CryptoHash()
	if err != nil {
		return nil, err
	}
	h := ch.New()
	for _, m := range message {
		h.Write(m)
	}
	h.Write(sig.HashSuffix())
	return h.Sum(nil), nil
}

// MatchesQuickCheck returns true if digest starts with the quick-check
func (sig *Signature) MatchesQuickCheck(digest []byte) bool {
	return len(digest) >= 2 && digest[0] == sig.QuickCheck[0] && digest[1] == sig.QuickCheck[1]
}
