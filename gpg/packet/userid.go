package packet

import (
	"encoding/binary"
)

// UserID is a user id packet. See RFC 4880, section 5.11.
type UserID struct {
	ID string
	// Canonical is 0xB4 || u32(len) || id, the form hashed by certifications.
	Canonical []byte
}

// ParseUserID decodes a user id packet body. The body is free-form text.
func ParseUserID(body []byte) *UserID {
	c := make([]byte, 5+len(body))
	c[0] = 0xb4
	binary.BigEndian.PutUint32(c[1:], uint32(len(body)))
	copy(c[5:], body)
	return &UserID{
		ID:        string(body),
		Canonical: c,
	}
}
