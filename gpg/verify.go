package gpg

import (
	"crypto/rsa"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/effective-security/xpgp/gpg/packet"
	"github.com/effective-security/xpgp/metricskey"
)

// Verdict is the outcome of checking one signature
type Verdict int

// Verdicts
const (
	// VerdictValid means the digest matched and the signature verified
	VerdictValid Verdict = iota
	// VerdictInvalid means the digest matched but the signature did not verify
	VerdictInvalid
	// VerdictDigestMismatch means the quick-check did not match the digest
	VerdictDigestMismatch
	// VerdictSkipped means no cryptographic check was attempted
	VerdictSkipped
)

// String returns the verdict name
func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictInvalid:
		return "invalid"
	case VerdictDigestMismatch:
		return "digest_mismatch"
	case VerdictSkipped:
		return "skipped"
	}
	return "unknown"
}

// Verification is the result of checking one signature packet
type Verification struct {
	Verdict Verdict
	// Digest is the recomputed message digest, nil when it could not be computed
	Digest []byte
	// Reason is nil for VerdictValid. Otherwise it matches one of
	// packet.ErrSignatureInvalid, packet.ErrDigestMismatch or
	// packet.ErrVerificationSkipped with errors.Is.
	Reason error
}

// Valid returns true if the signature was verified
func (v *Verification) Valid() bool {
	return v != nil && v.Verdict == VerdictValid
}

func skippedf(format string, args ...interface{}) error {
	return errors.Wrapf(packet.ErrVerificationSkipped, format, args...)
}

// verifySignature rebuilds the signed message of sig from c and checks it.
// Only a missing context key is returned as error, every other outcome is
// reported in the Verification.
func verifySignature(c Context, sig *packet.Signature, opts *Options) (*Verification, error) {
	defer metricskey.PerfVerify.MeasureSince(time.Now(), sig.SigType.String(), sig.PubKeyAlgo.String())

	message, ok, err := c.signedMessage(sig.SigType)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.KV(xlog.NOTICE, "reason", "unknown_signature_type", "type", sig.SigType.String())
		return &Verification{
			Verdict: VerdictSkipped,
			Reason:  skippedf("signature type %s is not supported", sig.SigType),
		}, nil
	}

	digest, err := sig.Digest(message...)
	if err != nil {
		logger.KV(xlog.DEBUG, "reason", "digest", "hash", sig.HashAlgo.String(), "err", err.Error())
		return &Verification{
			Verdict: VerdictSkipped,
			Reason:  errors.Mark(err, packet.ErrVerificationSkipped),
		}, nil
	}

	v := &Verification{Digest: digest}
	if !sig.MatchesQuickCheck(digest) {
		v.Verdict = VerdictDigestMismatch
		v.Reason = errors.Wrapf(packet.ErrDigestMismatch, "quick-check %X, digest starts with %X", sig.QuickCheck[:], digest[:2])
		return v, nil
	}

	signer, err := selectSigner(c, sig, opts)
	if err != nil {
		v.Verdict = VerdictSkipped
		v.Reason = err
		return v, nil
	}

	// the hash is known to be available once the digest was computed
	ch, _ := sig.HashAlgo.CryptoHash()
	pub := signer.Material.RSA
	err = rsa.VerifyPKCS1v15(pub, ch, digest, padToKeySize(pub, sig.RSASignature.Bytes()))
	if err != nil {
		logger.KV(xlog.DEBUG, "reason", "rsa_verify", "key", signer.KeyIDString(), "err", err.Error())
		v.Verdict = VerdictInvalid
		v.Reason = errors.Wrapf(packet.ErrSignatureInvalid, "%s by key %s", sig.SigType, signer.KeyIDString())
		return v, nil
	}

	v.Verdict = VerdictValid
	return v, nil
}

// selectSigner returns the key expected to have made sig, or a skip reason.
// Subkey bindings are always checked against the primary key; other types
// only when certification checks are enabled.
func selectSigner(c Context, sig *packet.Signature, opts *Options) (*packet.PublicKey, error) {
	var signer *packet.PublicKey
	switch {
	case sig.SigType == packet.SigTypeSubkeyBinding:
		signer = c.PrimaryKey
	case !opts.VerifyCertifications:
		return nil, skippedf("%s signatures are not verified", sig.SigType)
	case sig.SigType == packet.SigTypePrimaryKeyBinding:
		signer = c.Subkey
	default:
		signer = c.PrimaryKey
		if issuer := sig.IssuerKeyID(); issuer != nil && *issuer != signer.KeyID {
			return nil, skippedf("issuer %016X is not the primary key %s", *issuer, signer.KeyIDString())
		}
	}

	if !sig.PubKeyAlgo.IsRSA() || sig.RSASignature == nil {
		return nil, skippedf("%s signatures are not supported", sig.PubKeyAlgo)
	}
	if !signer.Material.Supported() {
		return nil, skippedf("%s key %s can not verify", signer.PubKeyAlgo, signer.KeyIDString())
	}
	if bits := signer.Material.RSA.N.BitLen(); bits < minRSAKeyBits {
		return nil, skippedf("%d-bit RSA key %s is below %d bits", bits, signer.KeyIDString(), minRSAKeyBits)
	}
	return signer, nil
}

// minRSAKeyBits is the smallest modulus crypto/rsa verifies with
const minRSAKeyBits = 1024

// padToKeySize left-pads the signature to the modulus size, since the MPI
// encoding drops leading zero octets.
func padToKeySize(pub *rsa.PublicKey, b []byte) []byte {
	k := (pub.N.BitLen() + 7) / 8
	if len(b) >= k {
		return b
	}
	bb := make([]byte, k)
	copy(bb[k-len(b):], b)
	return bb
}
