package print

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/effective-security/xpgp/gpg"
	"github.com/effective-security/xpgp/gpg/packet"
)

// KeyInfo describes a public key or subkey
type KeyInfo struct {
	Tag         string `json:"tag"`
	Algorithm   string `json:"algorithm"`
	Bits        int    `json:"bits,omitempty"`
	Created     string `json:"created"`
	Fingerprint string `json:"fingerprint"`
	KeyID       string `json:"key_id"`
	Supported   bool   `json:"supported"`
}

// SubpacketInfo describes one signature subpacket
type SubpacketInfo struct {
	Type     string `json:"type"`
	Critical bool   `json:"critical,omitempty"`
	Hashed   bool   `json:"hashed"`
	Payload  string `json:"payload,omitempty"`
}

// SignatureInfo describes a signature and its verification
type SignatureInfo struct {
	Type          string           `json:"type"`
	Algorithm     string           `json:"algorithm"`
	Hash          string           `json:"hash"`
	QuickCheck    string           `json:"quick_check"`
	Created       string           `json:"created,omitempty"`
	Expires       string           `json:"expires,omitempty"`
	KeyExpires    string           `json:"key_expires,omitempty"`
	Issuer        string           `json:"issuer,omitempty"`
	KeyFlags      string           `json:"key_flags,omitempty"`
	PreferredHash []string         `json:"preferred_hash,omitempty"`
	PrimaryUserID bool             `json:"primary_user_id,omitempty"`
	Subpackets    []*SubpacketInfo `json:"subpackets,omitempty"`

	Verdict string `json:"verdict"`
	Reason  string `json:"reason,omitempty"`
	Digest  string `json:"digest,omitempty"`
}

// EventInfo describes one decode event
type EventInfo struct {
	Kind      string         `json:"kind"`
	Tag       int            `json:"tag,omitempty"`
	Key       *KeyInfo       `json:"key,omitempty"`
	UserID    *string        `json:"user_id,omitempty"`
	Signature *SignatureInfo `json:"signature,omitempty"`
	Raw       string         `json:"raw,omitempty"`
}

// NewKeyInfo returns KeyInfo
func NewKeyInfo(pk *packet.PublicKey) *KeyInfo {
	return &KeyInfo{
		Tag:         pk.Tag.String(),
		Algorithm:   pk.PubKeyAlgo.String(),
		Bits:        pk.BitLength(),
		Created:     pk.CreationTime.Format(time.RFC3339),
		Fingerprint: pk.FingerprintString(),
		KeyID:       pk.KeyIDString(),
		Supported:   pk.Material.Supported(),
	}
}

// NewSignatureInfo returns SignatureInfo
func NewSignatureInfo(sig *packet.Signature, v *gpg.Verification) *SignatureInfo {
	si := &SignatureInfo{
		Type:       sig.SigType.String(),
		Algorithm:  sig.PubKeyAlgo.String(),
		Hash:       sig.HashAlgo.String(),
		QuickCheck: hex.EncodeToString(sig.QuickCheck[:]),
	}

	h := sig.Hashed
	if h.CreationTime != nil {
		si.Created = h.CreationTime.Format(time.RFC3339)
		if h.SigLifetimeSecs != nil && *h.SigLifetimeSecs > 0 {
			si.Expires = h.CreationTime.Add(time.Duration(*h.SigLifetimeSecs) * time.Second).Format(time.RFC3339)
		}
	}
	if h.KeyLifetimeSecs != nil && *h.KeyLifetimeSecs > 0 {
		si.KeyExpires = (time.Duration(*h.KeyLifetimeSecs) * time.Second).String()
	}
	if issuer := sig.IssuerKeyID(); issuer != nil {
		si.Issuer = fmt.Sprintf("%016X", *issuer)
	}
	if h.KeyFlags != nil {
		si.KeyFlags = h.KeyFlags.String()
	}
	for _, id := range h.PreferredHash {
		si.PreferredHash = append(si.PreferredHash, packet.HashAlgorithm(id).String())
	}
	if h.PrimaryUserID != nil {
		si.PrimaryUserID = *h.PrimaryUserID
	}

	si.Subpackets = appendSubpackets(si.Subpackets, sig.Hashed, true)
	si.Subpackets = appendSubpackets(si.Subpackets, sig.Unhashed, false)

	if v != nil {
		si.Verdict = v.Verdict.String()
		if v.Reason != nil {
			si.Reason = v.Reason.Error()
		}
		if len(v.Digest) > 0 {
			si.Digest = hex.EncodeToString(v.Digest)
		}
	}
	return si
}

func appendSubpackets(list []*SubpacketInfo, s *packet.Subpackets, hashed bool) []*SubpacketInfo {
	if s == nil {
		return list
	}
	for _, sp := range s.All {
		list = append(list, &SubpacketInfo{
			Type:     sp.Type.String(),
			Critical: sp.Critical,
			Hashed:   hashed,
			Payload:  hex.EncodeToString(sp.Payload),
		})
	}
	return list
}

// NewEventInfo returns EventInfo
func NewEventInfo(ev *gpg.Event) *EventInfo {
	ei := &EventInfo{
		Kind: ev.Kind.String(),
		Tag:  int(ev.Tag),
	}
	switch ev.Kind {
	case gpg.EventPublicKey, gpg.EventSubkey:
		ei.Key = NewKeyInfo(ev.Key)
	case gpg.EventUserID:
		ei.UserID = &ev.UserID.ID
	case gpg.EventSignature:
		ei.Signature = NewSignatureInfo(ev.Signature, ev.Verification)
	default:
		ei.Raw = hex.EncodeToString(ev.Raw)
	}
	return ei
}

// EventsJSON prints events as JSON array
func EventsJSON(w io.Writer, events []*gpg.Event) {
	list := make([]*EventInfo, 0, len(events))
	for _, ev := range events {
		list = append(list, NewEventInfo(ev))
	}
	JSON(w, list)
}

// Events prints events
func Events(w io.Writer, events []*gpg.Event) {
	for i, ev := range events {
		if i > 0 {
			fmt.Fprintln(w)
		}
		Event(w, ev)
	}
}

// Event prints event
func Event(w io.Writer, ev *gpg.Event) {
	switch ev.Kind {
	case gpg.EventPublicKey, gpg.EventSubkey:
		PublicKey(w, ev.Key)
	case gpg.EventUserID:
		fmt.Fprintf(w, "Packet: %s\n", ev.Tag)
		fmt.Fprintf(w, "  UserID: %s\n", ev.UserID.ID)
	case gpg.EventSignature:
		Signature(w, ev.Signature, ev.Verification)
	case gpg.EventUnknown:
		fmt.Fprintf(w, "Packet: %s\n", ev.Tag)
		fmt.Fprintf(w, "  Length: %d\n", len(ev.Raw))
	case gpg.EventTrailing:
		fmt.Fprintf(w, "Trailing: %d bytes\n", len(ev.Raw))
	}
}

// PublicKey prints public key
func PublicKey(w io.Writer, pk *packet.PublicKey) {
	fmt.Fprintf(w, "Packet: %s\n", pk.Tag)
	fmt.Fprintf(w, "  Version: %d\n", pk.Version)
	fmt.Fprintf(w, "  Algorithm: %s\n", pk.PubKeyAlgo)
	if bits := pk.BitLength(); bits > 0 {
		fmt.Fprintf(w, "  Bits: %d\n", bits)
	}
	fmt.Fprintf(w, "  Created: %s\n", pk.CreationTime.Format(time.RFC3339))
	fmt.Fprintf(w, "  Fingerprint: %s\n", pk.FingerprintString())
	fmt.Fprintf(w, "  KeyID: %s\n", pk.KeyIDString())
	if !pk.Material.Supported() {
		fmt.Fprintf(w, "  Supported: false\n")
	}
}

// Signature prints signature and its verification
func Signature(w io.Writer, sig *packet.Signature, v *gpg.Verification) {
	si := NewSignatureInfo(sig, v)

	fmt.Fprintf(w, "Packet: %s\n", packet.TagSignature)
	fmt.Fprintf(w, "  Type: %s\n", si.Type)
	fmt.Fprintf(w, "  Algorithm: %s\n", si.Algorithm)
	fmt.Fprintf(w, "  Hash: %s\n", si.Hash)
	if si.Created != "" {
		fmt.Fprintf(w, "  Created: %s\n", si.Created)
	}
	if si.Expires != "" {
		fmt.Fprintf(w, "  Expires: %s\n", si.Expires)
	}
	if si.KeyExpires != "" {
		fmt.Fprintf(w, "  Key expires after: %s\n", si.KeyExpires)
	}
	if si.Issuer != "" {
		fmt.Fprintf(w, "  Issuer: %s\n", si.Issuer)
	}
	if si.KeyFlags != "" {
		fmt.Fprintf(w, "  Key flags: %s\n", si.KeyFlags)
	}
	if len(si.PreferredHash) > 0 {
		fmt.Fprintf(w, "  Preferred hash: %s\n", strings.Join(si.PreferredHash, ", "))
	}
	if si.PrimaryUserID {
		fmt.Fprintf(w, "  Primary user id: true\n")
	}
	for _, sp := range si.Subpackets {
		crit := ""
		if sp.Critical {
			crit = " (critical)"
		}
		area := "unhashed"
		if sp.Hashed {
			area = "hashed"
		}
		fmt.Fprintf(w, "  Subpacket: %s%s, %s, %d bytes\n", sp.Type, crit, area, len(sp.Payload)/2)
	}
	fmt.Fprintf(w, "  Quick check: %s\n", si.QuickCheck)
	if si.Verdict != "" {
		fmt.Fprintf(w, "  Verdict: %s\n", si.Verdict)
	}
	if si.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", si.Reason)
	}
}
