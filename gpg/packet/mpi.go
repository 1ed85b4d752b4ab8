package packet

import (
	"encoding/binary"
	"math/big"
	"math/bits"

	"github.com/cockroachdb/errors"
)

// MPI is a multi-precision integer. See RFC 4880, section 3.2.
type MPI struct {
	bitLength uint16
	bytes     []byte
}

// NewMPI returns an MPI holding the big-endian unsigned integer in b.
// Leading zero octets are removed.
func NewMPI(b []byte) *MPI {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	m := &MPI{bytes: b}
	if len(b) > 0 {
		m.bitLength = uint16(8*(len(b)-1) + bits.Len8(b[0]))
	}
	return m
}

// NewMPIFromBig returns an MPI holding i
func NewMPIFromBig(i *big.Int) *MPI {
	return NewMPI(i.Bytes())
}

// ReadMPI decodes an MPI from the start of buf and returns the rest
func ReadMPI(buf []byte) (*MPI, []byte, error) {
	if len(buf) < 2 {
		return nil, nil, errors.Wrapf(ErrTruncatedMpi, "bit length needs 2 bytes, %d remaining", len(buf))
	}
	bitLength := binary.BigEndian.Uint16(buf)
	n := (int(bitLength) + 7) / 8
	buf = buf[2:]
	if len(buf) < n {
		return nil, nil, errors.Wrapf(ErrTruncatedMpi, "%d bits need %d bytes, %d remaining", bitLength, n, len(buf))
	}
	return &MPI{bitLength: bitLength, bytes: buf[:n:n]}, buf[n:], nil
}

// Bytes returns the big-endian integer bytes
func (m *MPI) Bytes() []byte {
	return m.bytes
}

// BitLength returns the declared bit length
func (m *MPI) BitLength() uint16 {
	return m.bitLength
}

// Int returns the value as big.Int
func (m *MPI) Int() *big.Int {
	return new(big.Int).SetBytes(m.bytes)
}

// EncodedBytes returns the wire encoding: bit length followed by the integer
func (m *MPI) EncodedBytes() []byte {
	out := make([]byte, 2+len(m.bytes))
	binary.BigEndian.PutUint16(out, m.bitLength)
	copy(out[2:], m.bytes)
	return out
}

// EncodedLength returns the size of the wire encoding
func (m *MPI) EncodedLength() int {
	return 2 + len(m.bytes)
}
