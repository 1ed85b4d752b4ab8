package gpg

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/effective-security/xpgp/gpg/packet"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xpgp", "gpg")

// EventKind identifies the decode event
type EventKind int

// Event kinds
const (
	EventPublicKey EventKind = iota
	EventSubkey
	EventUserID
	EventSignature
	// EventUnknown is a legacy packet with a tag this decoder does not handle
	EventUnknown
	// EventTrailing carries bytes that do not start with a legacy packet header
	EventTrailing
)

// String returns the event kind name
func (k EventKind) String() string {
	switch k {
	case EventPublicKey:
		return "public_key"
	case EventSubkey:
		return "public_subkey"
	case EventUserID:
		return "user_id"
	case EventSignature:
		return "signature"
	case EventUnknown:
		return "unknown"
	case EventTrailing:
		return "trailing"
	}
	return "invalid"
}

// Event is produced for each packet of a stream
type Event struct {
	Kind EventKind
	Tag  packet.Tag

	// Key is set for EventPublicKey and EventSubkey
	Key *packet.PublicKey
	// UserID is set for EventUserID
	UserID *packet.UserID
	// Signature and Verification are set for EventSignature
	Signature    *packet.Signature
	Verification *Verification
	// Raw is the packet body for EventUnknown, or the remainder for EventTrailing
	Raw []byte
}

// Step decodes one packet and returns the context for the next packet
func Step(c Context, p *packet.RawPacket, opts *Options) (Context, *Event, error) {
	switch p.Tag {
	case packet.TagPublicKey, packet.TagPublicSubkey:
		pk, err := packet.ParsePublicKey(p)
		if err != nil {
			return c, nil, err
		}
		kind := EventPublicKey
		if pk.IsSubkey() {
			kind = EventSubkey
		}
		logger.KV(xlog.DEBUG,
			"packet", p.Tag.String(),
			"algo", pk.PubKeyAlgo.String(),
			"fingerprint", pk.FingerprintString(),
			"supported", pk.Material.Supported())
		return c.WithKey(pk), &Event{Kind: kind, Tag: p.Tag, Key: pk}, nil

	case packet.TagUserID:
		uid := packet.ParseUserID(p.Body)
		logger.KV(xlog.DEBUG, "packet", p.Tag.String(), "uid", uid.ID)
		return c.WithUserID(uid), &Event{Kind: EventUserID, Tag: p.Tag, UserID: uid}, nil

	case packet.TagSignature:
		sig, err := packet.ParseSignature(p.Body)
		if err != nil {
			return c, nil, err
		}
		v, err := verifySignature(c, sig, opts)
		if err != nil {
			return c, nil, err
		}
		logger.KV(xlog.DEBUG,
			"packet", p.Tag.String(),
			"type", sig.SigType.String(),
			"hash", sig.HashAlgo.String(),
			"verdict", v.Verdict.String())
		return c, &Event{Kind: EventSignature, Tag: p.Tag, Signature: sig, Verification: v}, nil
	}

	logger.KV(xlog.DEBUG, "reason", "unhandled_packet", "packet", p.Tag.String(), "len", len(p.Body))
	return c, &Event{Kind: EventUnknown, Tag: p.Tag, Raw: p.Body}, nil
}

// DecodeStream decodes one binary packet stream with a fresh Context, and
// returns the final context and the events in stream order.
// Structural errors abort the decode and no events are returned.
func DecodeStream(data []byte, opts *Options) (Context, []*Event, error) {
	opts = opts.orDefault()

	var c Context
	var events []*Event
	r := packet.NewReader(data)
	for i := 0; ; i++ {
		p, err := r.Next()
		if err != nil {
			return Context{}, nil, errors.Wrapf(err, "packet %d", i)
		}
		if p == nil {
			break
		}

		var ev *Event
		c, ev, err = Step(c, p, opts)
		if err != nil {
			return Context{}, nil, errors.Wrapf(err, "packet %d (%s)", i, p.Tag)
		}
		events = append(events, ev)
	}

	if rem := r.Remainder(); len(rem) > 0 {
		logger.KV(xlog.DEBUG, "reason", "trailing", "len", len(rem))
		events = append(events, &Event{Kind: EventTrailing, Raw: rem})
	}
	return c, events, nil
}
