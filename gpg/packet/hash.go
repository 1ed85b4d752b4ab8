package packet

import (
	"crypto"
	// register digests used by crypto.Hash.New
	_ "crypto/md5"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"

	"github.com/cockroachdb/errors"
	_ "golang.org/x/crypto/ripemd160"
)

// HashAlgorithm is an OpenPGP hash algorithm id. See RFC 4880, section 9.4.
type HashAlgorithm uint8

// Hash algorithms
const (
	HashMD5       HashAlgorithm = 1
	HashSHA1      HashAlgorithm = 2
	HashRIPEMD160 HashAlgorithm = 3
	HashSHA256    HashAlgorithm = 8
	HashSHA384    HashAlgorithm = 9
	HashSHA512    HashAlgorithm = 10
	HashSHA224    HashAlgorithm = 11
)

var hashAlgorithms = map[HashAlgorithm]struct {
	hash crypto.Hash
	name string
}{
	HashMD5:       {crypto.MD5, "MD5"},
	HashSHA1:      {crypto.SHA1, "SHA1"},
	HashRIPEMD160: {crypto.RIPEMD160, "RIPEMD160"},
	HashSHA256:    {crypto.SHA256, "SHA256"},
	HashSHA384:    {crypto.SHA384, "SHA384"},
	HashSHA512:    {crypto.SHA512, "SHA512"},
	HashSHA224:    {crypto.SHA224, "SHA224"},
}

// CryptoHash returns the crypto.Hash for the algorithm
func (h HashAlgorithm) CryptoHash() (crypto.Hash, error) {
	if info, ok := hashAlgorithms[h]; ok && info.hash.Available() {
		return info.hash, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedHashAlgorithm, "hash algorithm %d", uint8(h))
}

// String returns the algorithm name
func (h HashAlgorithm) String() string {
	if info, ok := hashAlgorithms[h]; ok {
		return info.name
	}
	return fmt.Sprintf("hash_%d", uint8(h))
}
