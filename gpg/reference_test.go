package gpg_test

import (
	"bytes"
	"crypto"
	"io"
	"testing"

	pgppacket "github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/effective-security/xpgp/gpg"
	"github.com/effective-security/xpgp/internal/pgptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAll parses data with the ProtonMail packet reader
func readAll(t *testing.T, data []byte) []pgppacket.Packet {
	var list []pgppacket.Packet
	r := bytes.NewReader(data)
	for {
		p, err := pgppacket.Read(r)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		list = append(list, p)
	}
	return list
}

func TestAgainstReferenceImplementation(t *testing.T) {
	f := pgptest.NewFixture()
	stream := f.Transferable()

	ref := readAll(t, stream)
	require.Len(t, ref, 5)

	pub, ok := ref[0].(*pgppacket.PublicKey)
	require.True(t, ok)
	uid, ok := ref[1].(*pgppacket.UserId)
	require.True(t, ok)
	cert, ok := ref[2].(*pgppacket.Signature)
	require.True(t, ok)
	sub, ok := ref[3].(*pgppacket.PublicKey)
	require.True(t, ok)
	binding, ok := ref[4].(*pgppacket.Signature)
	require.True(t, ok)

	require.NoError(t, pub.VerifyUserIdSignature(uid.Id, pub, cert))
	require.NoError(t, pub.VerifyKeySignature(sub, binding))

	c, events, err := gpg.DecodeStream(stream, &gpg.Options{VerifyCertifications: true})
	require.NoError(t, err)
	require.Len(t, events, 5)

	assert.Equal(t, pub.Fingerprint, c.PrimaryKey.Fingerprint)
	assert.Equal(t, pub.KeyId, c.PrimaryKey.KeyID)
	assert.Equal(t, sub.Fingerprint, c.Subkey.Fingerprint)
	assert.Equal(t, sub.KeyId, c.Subkey.KeyID)
	assert.Equal(t, uid.Id, c.UserID.ID)
	assert.Equal(t, pub.CreationTime.Unix(), c.PrimaryKey.CreationTime.Unix())

	assert.Equal(t, uint8(cert.SigType), uint8(events[2].Signature.SigType))
	assert.Equal(t, *cert.IssuerKeyId, *events[2].Signature.IssuerKeyID())
	assert.Equal(t, gpg.VerdictValid, events[2].Verification.Verdict)
	assert.Equal(t, uint8(binding.SigType), uint8(events[4].Signature.SigType))
	assert.Equal(t, gpg.VerdictValid, events[4].Verification.Verdict)
}

func TestReferenceRejectsWhatWeReject(t *testing.T) {
	f := pgptest.NewFixture()
	body := f.BindingSig(crypto.SHA256).Body(f.BindingMessage(), f.Primary)
	body[len(body)-1] ^= 0x01
	stream := pgptest.Concat(f.PrimaryPacket(), f.SubkeyPacket(), pgptest.Packet(pgptest.TagSignature, body))

	ref := readAll(t, stream)
	require.Len(t, ref, 3)
	pub := ref[0].(*pgppacket.PublicKey)
	sub := ref[1].(*pgppacket.PublicKey)
	assert.Error(t, pub.VerifyKeySignature(sub, ref[2].(*pgppacket.Signature)))

	_, events, err := gpg.DecodeStream(stream, nil)
	require.NoError(t, err)
	assert.Equal(t, gpg.VerdictInvalid, events[2].Verification.Verdict)
}
