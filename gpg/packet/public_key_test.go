package packet_test

import (
	"crypto/rsa"
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xpgp/gpg/packet"
	"github.com/effective-security/xpgp/internal/pgptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublicKeyRSA(t *testing.T) {
	f := pgptest.NewFixture()

	pk, err := packet.ParsePublicKey(packet.NewRawPacket(packet.TagPublicKey, f.PrimaryBody))
	require.NoError(t, err)
	assert.False(t, pk.IsSubkey())
	assert.Equal(t, uint8(4), pk.Version)
	assert.Equal(t, pgptest.Created, pk.CreationTime)
	assert.Equal(t, packet.PubKeyAlgoRSA, pk.PubKeyAlgo)
	assert.Equal(t, 2048, pk.BitLength())
	assert.Equal(t, pgptest.KeyHashForm(f.PrimaryBody), pk.RawKeyBytes)
	assert.Equal(t, pgptest.Fingerprint(f.PrimaryBody), pk.Fingerprint)
	assert.Equal(t, pgptest.KeyID(f.PrimaryBody), pk.KeyID)
	assert.Len(t, pk.FingerprintString(), 40)
	assert.Len(t, pk.KeyIDString(), 16)
	assert.Equal(t, pk.FingerprintString()[24:], pk.KeyIDString())

	require.True(t, pk.Material.Supported())
	assert.Equal(t, 0, f.Primary.PublicKey.N.Cmp(pk.Material.RSA.N))
	assert.Equal(t, f.Primary.PublicKey.E, pk.Material.RSA.E)

	sub, err := packet.ParsePublicKey(packet.NewRawPacket(packet.TagPublicSubkey, f.SubBody))
	require.NoError(t, err)
	assert.True(t, sub.IsSubkey())
	assert.NotEqual(t, pk.KeyID, sub.KeyID)
}

func TestParsePublicKeyUnsupportedAlgorithm(t *testing.T) {
	// EdDSA with opaque material
	body := []byte{4, 0, 0, 0, 1, 22, 0x09, 0x2b, 0x06, 0x01}
	pk, err := packet.ParsePublicKey(packet.NewRawPacket(packet.TagPublicKey, body))
	require.NoError(t, err)
	assert.Equal(t, packet.PubKeyAlgoEdDSA, pk.PubKeyAlgo)
	assert.Equal(t, "EdDSA", pk.PubKeyAlgo.String())
	assert.False(t, pk.Material.Supported())
	assert.Equal(t, 0, pk.BitLength())
	assert.Equal(t, pgptest.Fingerprint(body), pk.Fingerprint)
}

func TestParsePublicKeyLargeExponent(t *testing.T) {
	pub := &rsa.PublicKey{N: pgptest.RSAKey(0).N}
	body := []byte{4, 0, 0, 0, 1, 1}
	body = append(body, pgptest.MPI(pub.N.Bytes())...)
	body = append(body, pgptest.MPI(new(big.Int).Lsh(big.NewInt(1), 40).Bytes())...)

	pk, err := packet.ParsePublicKey(packet.NewRawPacket(packet.TagPublicKey, body))
	require.NoError(t, err)
	assert.False(t, pk.Material.Supported())
	assert.Equal(t, uint16(41), pk.E.BitLength())
}

func TestParsePublicKeyErrors(t *testing.T) {
	tcases := []struct {
		name string
		body []byte
		err  error
		exp  string
	}{
		{"empty", nil, packet.ErrMalformedPacket, "empty key packet: malformed packet"},
		{"v3", []byte{3, 0, 0, 0, 0, 1}, packet.ErrUnsupportedKeyVersion, "version 3: unsupported key version"},
		{"v5", []byte{5, 0, 0, 0, 0, 1}, packet.ErrUnsupportedKeyVersion, "version 5: unsupported key version"},
		{"short", []byte{4, 0, 0}, packet.ErrMalformedPacket, "key packet needs 6 bytes, got 3: malformed packet"},
		{"no modulus", []byte{4, 0, 0, 0, 0, 1}, packet.ErrTruncatedMpi, "RSA modulus: bit length needs 2 bytes, 0 remaining: truncated MPI"},
		{"short modulus", []byte{4, 0, 0, 0, 0, 1, 0x00, 0x10, 0x01}, packet.ErrTruncatedMpi, "RSA modulus: 16 bits need 2 bytes, 1 remaining: truncated MPI"},
		{"no exponent", []byte{4, 0, 0, 0, 0, 1, 0x00, 0x08, 0xff}, packet.ErrTruncatedMpi, "RSA exponent: bit length needs 2 bytes, 0 remaining: truncated MPI"},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := packet.ParsePublicKey(packet.NewRawPacket(packet.TagPublicKey, tc.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.err))
			assert.True(t, packet.IsStructural(err))
			assert.EqualError(t, err, tc.exp)
		})
	}

	_, err := packet.ParsePublicKey(packet.NewRawPacket(packet.TagUserID, []byte{4}))
	assert.EqualError(t, err, "not a public key packet: user_id")
}

func TestPublicKeyAlgorithm(t *testing.T) {
	assert.True(t, packet.PubKeyAlgoRSA.IsRSA())
	assert.True(t, packet.PubKeyAlgoRSAEncryptOnly.IsRSA())
	assert.True(t, packet.PubKeyAlgoRSASignOnly.IsRSA())
	assert.False(t, packet.PubKeyAlgoDSA.IsRSA())
	assert.Equal(t, "RSA", packet.PubKeyAlgoRSA.String())
	assert.Equal(t, "algo_99", packet.PublicKeyAlgorithm(99).String())
}

func TestParseUserID(t *testing.T) {
	uid := packet.ParseUserID([]byte("Alice <alice@example.com>"))
	assert.Equal(t, "Alice <alice@example.com>", uid.ID)
	assert.Equal(t, pgptest.UserIDHashForm("Alice <alice@example.com>"), uid.Canonical)
	assert.Equal(t, []byte{0xb4, 0, 0, 0, 25}, uid.Canonical[:5])

	uid = packet.ParseUserID(nil)
	assert.Equal(t, "", uid.ID)
	assert.Equal(t, []byte{0xb4, 0, 0, 0, 0}, uid.Canonical)
}
