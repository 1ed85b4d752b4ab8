// Package pgptest builds OpenPGP packets and RSA signatures for tests.
// It encodes everything by hand so fixtures do not depend on the decoder.
package pgptest

import (
	"bytes"
	"crypto"
	// register digests used by fixtures
	_ "crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/binary"
	"math/big"
	"sync"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp/armor"
	_ "golang.org/x/crypto/ripemd160"
)

// Packet tags and signature types used by fixtures
const (
	TagSignature    = 2
	TagPublicKey    = 6
	TagUserID       = 13
	TagPublicSubkey = 14

	SigTypePositiveCert      = 0x13
	SigTypeSubkeyBinding     = 0x18
	SigTypePrimaryKeyBinding = 0x19
)

// HashIDs maps digests to OpenPGP hash algorithm ids
var HashIDs = map[crypto.Hash]byte{
	crypto.MD5:       1,
	crypto.SHA1:      2,
	crypto.RIPEMD160: 3,
	crypto.SHA256:    8,
	crypto.SHA384:    9,
	crypto.SHA512:    10,
	crypto.SHA224:    11,
}

// Created is the creation time of fixture keys and signatures
var Created = time.Unix(1700000000, 0).UTC()

var (
	keysLock sync.Mutex
	keys     []*rsa.PrivateKey
)

// RSAKey returns the i-th cached 2048-bit test key
func RSAKey(i int) *rsa.PrivateKey {
	keysLock.Lock()
	defer keysLock.Unlock()
	for len(keys) <= i {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		keys = append(keys, k)
	}
	return keys[i]
}

// MPI encodes b as a multi-precision integer
func MPI(b []byte) []byte {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	bits := 0
	if len(b) > 0 {
		bits = 8 * len(b)
		for m := byte(0x80); m > 0 && b[0]&m == 0; m >>= 1 {
			bits--
		}
	}
	return append([]byte{byte(bits >> 8), byte(bits)}, b...)
}

// Packet returns a legacy format packet with the shortest length field
func Packet(tag byte, body []byte) []byte {
	var hdr []byte
	switch {
	case len(body) < 256:
		hdr = []byte{0x80 | tag<<2, byte(len(body))}
	case len(body) < 65536:
		hdr = []byte{0x80 | tag<<2 | 1, byte(len(body) >> 8), byte(len(body))}
	default:
		hdr = []byte{0x80 | tag<<2 | 2, 0, 0, 0, 0}
		binary.BigEndian.PutUint32(hdr[1:], uint32(len(body)))
	}
	return append(hdr, body...)
}

// RSAKeyBody returns a v4 RSA public key packet body
func RSAKeyBody(created time.Time, pub *rsa.PublicKey) []byte {
	b := []byte{4, 0, 0, 0, 0, 1}
	binary.BigEndian.PutUint32(b[1:5], uint32(created.Unix()))
	b = append(b, MPI(pub.N.Bytes())...)
	return append(b, MPI(big.NewInt(int64(pub.E)).Bytes())...)
}

// KeyHashForm returns 0x99 || u16(len) || body
func KeyHashForm(body []byte) []byte {
	return append([]byte{0x99, byte(len(body) >> 8), byte(len(body))}, body...)
}

// UserIDHashForm returns 0xB4 || u32(len) || id
func UserIDHashForm(id string) []byte {
	b := []byte{0xb4, 0, 0, 0, 0}
	binary.BigEndian.PutUint32(b[1:], uint32(len(id)))
	return append(b, id...)
}

// Fingerprint returns the v4 fingerprint of a key packet body
func Fingerprint(body []byte) []byte {
	fp := sha1.Sum(KeyHashForm(body))
	return fp[:]
}

// KeyID returns the v4 key id of a key packet body
func KeyID(body []byte) uint64 {
	return binary.BigEndian.Uint64(Fingerprint(body)[12:20])
}

// Subpacket encodes a subpacket, length including the type octet
func Subpacket(typ byte, payload []byte) []byte {
	l := len(payload) + 1
	var out []byte
	switch {
	case l < 192:
		out = []byte{byte(l)}
	case l < 16320:
		out = []byte{byte((l-192)>>8) + 192, byte(l - 192)}
	default:
		out = []byte{255, 0, 0, 0, 0}
		binary.BigEndian.PutUint32(out[1:], uint32(l))
	}
	out = append(out, typ)
	return append(out, payload...)
}

// CreationTime returns a creation time subpacket
func CreationTime(t time.Time) []byte {
	p := make([]byte, 4)
	binary.BigEndian.PutUint32(p, uint32(t.Unix()))
	return Subpacket(2, p)
}

// Issuer returns an issuer key id subpacket
func Issuer(keyID uint64) []byte {
	p := make([]byte, 8)
	binary.BigEndian.PutUint64(p, keyID)
	return Subpacket(16, p)
}

// Sig describes a v4 signature to build
type Sig struct {
	Type       byte
	PubKeyAlgo byte
	Hash       crypto.Hash
	Hashed     []byte
	Unhashed   []byte
}

// Digest returns the digest of message followed by the v4 trailer of s
func (s Sig) Digest(message []byte) []byte {
	h := s.Hash.New()
	h.Write(message)
	h.Write(s.hashedPart())
	h.Write(s.trailer())
	return h.Sum(nil)
}

func (s Sig) algo() byte {
	if s.PubKeyAlgo == 0 {
		return 1
	}
	return s.PubKeyAlgo
}

func (s Sig) hashedPart() []byte {
	b := []byte{4, s.Type, s.algo(), HashIDs[s.Hash], byte(len(s.Hashed) >> 8), byte(len(s.Hashed))}
	return append(b, s.Hashed...)
}

func (s Sig) trailer() []byte {
	t := []byte{4, 0xff, 0, 0, 0, 0}
	binary.BigEndian.PutUint32(t[2:], uint32(len(s.hashedPart())))
	return t
}

// Body signs message with key and returns the signature packet body
func (s Sig) Body(message []byte, key *rsa.PrivateKey) []byte {
	digest := s.Digest(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, s.Hash, digest)
	if err != nil {
		panic(err)
	}
	return s.Assemble(digest[:2], MPI(sig))
}

// Assemble returns a signature packet body with the given quick-check and value
func (s Sig) Assemble(quickCheck []byte, value []byte) []byte {
	b := s.hashedPart()
	b = append(b, byte(len(s.Unhashed)>>8), byte(len(s.Unhashed)))
	b = append(b, s.Unhashed...)
	b = append(b, quickCheck...)
	return append(b, value...)
}

// Fixture is an RSA primary key with an RSA subkey and a user id
type Fixture struct {
	Primary *rsa.PrivateKey
	Sub     *rsa.PrivateKey
	UserID  string

	PrimaryBody []byte
	SubBody     []byte
}

// NewFixture returns a fixture using the cached test keys
func NewFixture() *Fixture {
	f := &Fixture{
		Primary: RSAKey(0),
		Sub:     RSAKey(1),
		UserID:  "Alice <alice@example.com>",
	}
	f.PrimaryBody = RSAKeyBody(Created, &f.Primary.PublicKey)
	f.SubBody = RSAKeyBody(Created, &f.Sub.PublicKey)
	return f
}

// PrimaryPacket returns the primary key packet
func (f *Fixture) PrimaryPacket() []byte {
	return Packet(TagPublicKey, f.PrimaryBody)
}

// SubkeyPacket returns the subkey packet
func (f *Fixture) SubkeyPacket() []byte {
	return Packet(TagPublicSubkey, f.SubBody)
}

// UserIDPacket returns the user id packet
func (f *Fixture) UserIDPacket() []byte {
	return Packet(TagUserID, []byte(f.UserID))
}

// BindingSig returns the subkey binding signature description
func (f *Fixture) BindingSig(h crypto.Hash) Sig {
	return Sig{
		Type: SigTypeSubkeyBinding,
		Hash: h,
		Hashed: concat(
			CreationTime(Created),
			// encrypt communications and storage
			Subpacket(27, []byte{0x0c}),
		),
		Unhashed: Issuer(KeyID(f.PrimaryBody)),
	}
}

// BindingMessage returns the message hashed by key binding signatures
func (f *Fixture) BindingMessage() []byte {
	return concat(KeyHashForm(f.PrimaryBody), KeyHashForm(f.SubBody))
}

// SubkeyBinding returns a subkey binding signature packet made by the primary key
func (f *Fixture) SubkeyBinding(h crypto.Hash) []byte {
	return Packet(TagSignature, f.BindingSig(h).Body(f.BindingMessage(), f.Primary))
}

// CertificationSig returns the positive certification description
func (f *Fixture) CertificationSig(h crypto.Hash) Sig {
	return Sig{
		Type: SigTypePositiveCert,
		Hash: h,
		Hashed: concat(
			CreationTime(Created),
			// certify and sign
			Subpacket(27, []byte{0x03}),
			// SHA256, SHA512
			Subpacket(21, []byte{8, 10}),
			// AES256, AES128
			Subpacket(11, []byte{9, 7}),
		),
		Unhashed: Issuer(KeyID(f.PrimaryBody)),
	}
}

// CertificationMessage returns the message hashed by certifications
func (f *Fixture) CertificationMessage() []byte {
	return concat(KeyHashForm(f.PrimaryBody), UserIDHashForm(f.UserID))
}

// Certification returns a positive certification packet made by the primary key
func (f *Fixture) Certification(h crypto.Hash) []byte {
	return Packet(TagSignature, f.CertificationSig(h).Body(f.CertificationMessage(), f.Primary))
}

// Transferable returns primary key, user id, certification, subkey and binding
func (f *Fixture) Transferable() []byte {
	return concat(
		f.PrimaryPacket(),
		f.UserIDPacket(),
		f.Certification(crypto.SHA256),
		f.SubkeyPacket(),
		f.SubkeyBinding(crypto.SHA256),
	)
}

// Armor returns data as an armored block
func Armor(blockType string, data []byte) []byte {
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, blockType, nil)
	if err != nil {
		panic(err)
	}
	if _, err = w.Write(data); err != nil {
		panic(err)
	}
	if err = w.Close(); err != nil {
		panic(err)
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Concat joins packets into one stream
func Concat(parts ...[]byte) []byte {
	return concat(parts...)
}
