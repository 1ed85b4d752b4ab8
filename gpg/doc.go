// Package gpg decodes OpenPGP public key streams and checks the signatures
// that bind them together.
//
// This package supports:
//   - Decoding legacy-format packet streams, raw or ASCII armored
//   - Threading primary key, subkey and user id material between packets
//   - Rebuilding the signed message of binding and certification signatures
//   - Verifying RSA subkey binding signatures, and optionally certifications
//
// Decoding is a single synchronous pass over an in-memory buffer. Each
// stream, and each armored block, is decoded with its own Context.
package gpg
