package gpg

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xpgp/gpg/packet"
)

// Context carries key and user id material from earlier packets of one
// stream to the signatures that follow them. It is a value: every step of
// the decode returns an updated copy and nothing is shared between streams.
type Context struct {
	PrimaryKey *packet.PublicKey
	Subkey     *packet.PublicKey
	UserID     *packet.UserID
}

// WithKey returns a copy of c with the primary key or the subkey replaced,
// depending on the packet tag of pk
func (c Context) WithKey(pk *packet.PublicKey) Context {
	if pk.IsSubkey() {
		c.Subkey = pk
	} else {
		c.PrimaryKey = pk
	}
	return c
}

// WithUserID returns a copy of c with the user id replaced
func (c Context) WithUserID(uid *packet.UserID) Context {
	c.UserID = uid
	return c
}

// signedMessage returns the canonical material hashed ahead of the
// signature trailer. ok is false for signature types without a known
// message layout.
func (c Context) signedMessage(t packet.SignatureType) (message [][]byte, ok bool, err error) {
	switch {
	case t.IsKeyBinding():
		if c.PrimaryKey == nil || c.Subkey == nil {
			return nil, false, errors.Wrapf(packet.ErrMissingContextKey,
				"%s signature requires a primary key and a subkey", t)
		}
		return [][]byte{c.PrimaryKey.RawKeyBytes, c.Subkey.RawKeyBytes}, true, nil
	case t.IsCertification():
		if c.PrimaryKey == nil || c.UserID == nil {
			return nil, false, errors.Wrapf(packet.ErrMissingContextKey,
				"%s signature requires a primary key and a user id", t)
		}
		return [][]byte{c.PrimaryKey.RawKeyBytes, c.UserID.Canonical}, true, nil
	}
	return nil, false, nil
}
