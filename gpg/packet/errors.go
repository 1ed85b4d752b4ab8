package packet

import "github.com/cockroachdb/errors"

// Structural errors. Any of these aborts decoding of the stream.
var (
	// ErrMalformedHeader is returned when a packet header declares more body
	// bytes than the input holds.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrMalformedPacket is returned when the fixed fields of a packet body
	// are truncated or out of range.
	ErrMalformedPacket = errors.New("malformed packet")
	// ErrTruncatedMpi is returned when an MPI declares more bits than remain.
	ErrTruncatedMpi = errors.New("truncated MPI")
	// ErrTruncatedSubpacket is returned for a short or invalid subpacket length.
	ErrTruncatedSubpacket = errors.New("truncated subpacket")
	// ErrUnsupportedKeyVersion is returned for key packets other than v4.
	ErrUnsupportedKeyVersion = errors.New("unsupported key version")
	// ErrUnsupportedSignatureVersion is returned for signature packets other than v4.
	ErrUnsupportedSignatureVersion = errors.New("unsupported signature version")
	// ErrMissingContextKey is returned when a signature references a key or
	// user id that has not been seen earlier in the stream.
	ErrMissingContextKey = errors.New("missing context key")
)

// Per-signature outcomes. These never abort the stream.
var (
	// ErrUnsupportedHashAlgorithm is returned for hash ids without a digest implementation.
	ErrUnsupportedHashAlgorithm = errors.New("unsupported hash algorithm")
	// ErrDigestMismatch is returned when the quick-check does not match the digest.
	ErrDigestMismatch = errors.New("digest mismatch")
	// ErrSignatureInvalid is returned when the cryptographic check fails.
	ErrSignatureInvalid = errors.New("signature invalid")
	// ErrVerificationSkipped marks signatures that were not cryptographically checked.
	ErrVerificationSkipped = errors.New("verification skipped")
)

// IsStructural returns true if err must abort the decode of the whole stream.
func IsStructural(err error) bool {
	return errors.IsAny(err,
		ErrMalformedHeader,
		ErrMalformedPacket,
		ErrTruncatedMpi,
		ErrTruncatedSubpacket,
		ErrUnsupportedKeyVersion,
		ErrUnsupportedSignatureVersion,
		ErrMissingContextKey,
	)
}
