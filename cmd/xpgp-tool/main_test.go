package main

import (
	"bytes"
	"crypto"
	"os"
	"path/filepath"
	"testing"

	"github.com/effective-security/xpgp/internal/pgptest"
	"github.com/effective-security/xpgp/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(t *testing.T) {
	out := bytes.NewBuffer([]byte{})
	errout := bytes.NewBuffer([]byte{})
	rc := 0
	exit := func(c int) {
		rc = c
	}

	realMain([]string{"xpgp-tool", "unknown"}, out, errout, exit)
	// kong exits with 80 on parse errors
	assert.Equal(t, 80, rc)
	assert.Equal(t, "xpgp-tool: error: unexpected argument unknown\n", errout.String())
	assert.Empty(t, out.String())
}

func TestVersion(t *testing.T) {
	out := bytes.NewBuffer([]byte{})
	errout := bytes.NewBuffer([]byte{})
	rc := 0
	exit := func(c int) {
		rc = c
	}

	realMain([]string{"xpgp-tool", "version"}, out, errout, exit)
	assert.Equal(t, 0, rc)
	assert.Equal(t, version.Current().String()+"\n", out.String())
	assert.Empty(t, errout.String())
}

func TestVerifyExitCode(t *testing.T) {
	dir := t.TempDir()
	f := pgptest.NewFixture()

	good := filepath.Join(dir, "good.gpg")
	require.NoError(t, os.WriteFile(good, f.Transferable(), 0644))

	body := f.BindingSig(crypto.SHA256).Body(f.BindingMessage(), f.Primary)
	body[len(body)-1] ^= 0x01
	bad := filepath.Join(dir, "bad.gpg")
	require.NoError(t, os.WriteFile(bad, pgptest.Concat(
		f.PrimaryPacket(), f.SubkeyPacket(), pgptest.Packet(pgptest.TagSignature, body),
	), 0644))

	t.Run("valid", func(t *testing.T) {
		out := bytes.NewBuffer([]byte{})
		errout := bytes.NewBuffer([]byte{})
		rc := 0
		realMain([]string{"xpgp-tool", "verify", "--verify-certifications", good}, out, errout, func(c int) { rc = c })
		assert.Equal(t, 0, rc)
		assert.Contains(t, out.String(), "positive_certification SHA256 ")
		assert.Contains(t, out.String(), "verified 2 signatures\n")
		assert.Empty(t, errout.String())
	})

	t.Run("invalid", func(t *testing.T) {
		out := bytes.NewBuffer([]byte{})
		errout := bytes.NewBuffer([]byte{})
		rc := 0
		realMain([]string{"xpgp-tool", "verify", bad}, out, errout, func(c int) { rc = c })
		assert.Equal(t, 1, rc)
		assert.Contains(t, out.String(), "subkey_binding SHA256 ")
		assert.Contains(t, out.String(), ": invalid\n")
		assert.Contains(t, errout.String(), "1 of 1 signatures failed verification")
	})
}
