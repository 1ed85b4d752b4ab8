package packet

import (
	"crypto/rsa"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// PublicKeyAlgorithm is an OpenPGP public key algorithm id. See RFC 4880, section 9.1.
type PublicKeyAlgorithm uint8

// Public key algorithms
const (
	PubKeyAlgoRSA            PublicKeyAlgorithm = 1
	PubKeyAlgoRSAEncryptOnly PublicKeyAlgorithm = 2
	PubKeyAlgoRSASignOnly    PublicKeyAlgorithm = 3
	PubKeyAlgoElGamal        PublicKeyAlgorithm = 16
	PubKeyAlgoDSA            PublicKeyAlgorithm = 17
	PubKeyAlgoECDH           PublicKeyAlgorithm = 18
	PubKeyAlgoECDSA          PublicKeyAlgorithm = 19
	PubKeyAlgoEdDSA          PublicKeyAlgorithm = 22
)

// IsRSA returns true for the RSA family
func (a PublicKeyAlgorithm) IsRSA() bool {
	switch a {
	case PubKeyAlgoRSA, PubKeyAlgoRSAEncryptOnly, PubKeyAlgoRSASignOnly:
		return true
	}
	return false
}

// String returns the algorithm name
func (a PublicKeyAlgorithm) String() string {
	switch a {
	case PubKeyAlgoRSA:
		return "RSA"
	case PubKeyAlgoRSAEncryptOnly:
		return "RSA_E"
	case PubKeyAlgoRSASignOnly:
		return "RSA_S"
	case PubKeyAlgoElGamal:
		return "ElGamal"
	case PubKeyAlgoDSA:
		return "DSA"
	case PubKeyAlgoECDH:
		return "ECDH"
	case PubKeyAlgoECDSA:
		return "ECDSA"
	case PubKeyAlgoEdDSA:
		return "EdDSA"
	}
	return fmt.Sprintf("algo_%d", uint8(a))
}

// KeyMaterial is the algorithm specific part of a public key.
// RSA is nil when the key can not be used for verification.
type KeyMaterial struct {
	Algorithm PublicKeyAlgorithm
	RSA       *rsa.PublicKey
}

// Supported returns true if the material can verify signatures
func (m KeyMaterial) Supported() bool {
	return m.RSA != nil
}

// PublicKey is a v4 public key or subkey packet. See RFC 4880, section 5.5.2.
type PublicKey struct {
	Tag          Tag
	Version      uint8
	CreationTime time.Time
	PubKeyAlgo   PublicKeyAlgorithm
	Material     KeyMaterial

	// N and E are set for the RSA family
	N, E *MPI

	// RawKeyBytes is 0x99 || u16(len) || body, the form hashed by
	// fingerprints and key signatures.
	RawKeyBytes []byte
	// Fingerprint is the SHA-1 of RawKeyBytes
	Fingerprint []byte
	// KeyID is the low 64 bits of Fingerprint
	KeyID uint64
}

// ParsePublicKey decodes a public key or public subkey packet
func ParsePublicKey(p *RawPacket) (*PublicKey, error) {
	if p.Tag != TagPublicKey && p.Tag != TagPublicSubkey {
		return nil, errors.Errorf("not a public key packet: %s", p.Tag)
	}
	body := p.Body
	if len(body) < 1 {
		return nil, errors.Wrap(ErrMalformedPacket, "empty key packet")
	}
	if body[0] != 4 {
		return nil, errors.Wrapf(ErrUnsupportedKeyVersion, "version %d", body[0])
	}
	if len(body) < 6 {
		return nil, errors.Wrapf(ErrMalformedPacket, "key packet needs 6 bytes, got %d", len(body))
	}
	if len(body) > math.MaxUint16 {
		return nil, errors.Wrapf(ErrMalformedPacket, "key packet of %d bytes does not fit a two-octet length", len(body))
	}

	pk := &PublicKey{
		Tag:          p.Tag,
		Version:      body[0],
		CreationTime: time.Unix(int64(binary.BigEndian.Uint32(body[1:5])), 0).UTC(),
		PubKeyAlgo:   PublicKeyAlgorithm(body[5]),
	}
	pk.Material.Algorithm = pk.PubKeyAlgo

	if pk.PubKeyAlgo.IsRSA() {
		if err := pk.parseRSA(body[6:]); err != nil {
			return nil, err
		}
	} else {
		logger.KV(xlog.DEBUG, "reason", "unsupported_key_algorithm", "algo", pk.PubKeyAlgo.String())
	}

	pk.RawKeyBytes = make([]byte, 3+len(body))
	pk.RawKeyBytes[0] = 0x99
	binary.BigEndian.PutUint16(pk.RawKeyBytes[1:], uint16(len(body)))
	copy(pk.RawKeyBytes[3:], body)

	fp := sha1.Sum(pk.RawKeyBytes)
	pk.Fingerprint = fp[:]
	pk.KeyID = binary.BigEndian.Uint64(fp[12:20])

	return pk, nil
}

// parseRSA reads the modulus and the exponent, in that order.
func (pk *PublicKey) parseRSA(material []byte) error {
	var err error
	pk.N, material, err = ReadMPI(material)
	if err != nil {
		return errors.Wrap(err, "RSA modulus")
	}
	pk.E, material, err = ReadMPI(material)
	if err != nil {
		return errors.Wrap(err, "RSA exponent")
	}
	if len(material) > 0 {
		logger.KV(xlog.DEBUG, "reason", "trailing_key_material", "len", len(material))
	}

	e := pk.E.Int()
	if !e.IsInt64() || e.Int64() > math.MaxInt32 || e.Sign() == 0 {
		logger.KV(xlog.WARNING, "reason", "unsupported_exponent", "bits", pk.E.BitLength())
		return nil
	}
	pk.Material.RSA = &rsa.PublicKey{
		N: pk.N.Int(),
		E: int(e.Int64()),
	}
	return nil
}

// IsSubkey returns true for public subkey packets
func (pk *PublicKey) IsSubkey() bool {
	return pk.Tag == TagPublicSubkey
}

// BitLength returns the modulus size for RSA keys, or 0
func (pk *PublicKey) BitLength() int {
	if pk.N == nil {
		return 0
	}
	return int(pk.N.BitLength())
}

// KeyIDString returns the key id in hex
func (pk *PublicKey) KeyIDString() string {
	return fmt.Sprintf("%016X", pk.KeyID)
}

// FingerprintString returns the fingerprint in hex
func (pk *PublicKey) FingerprintString() string {
	return fmt.Sprintf("%040X", pk.Fingerprint)
}
