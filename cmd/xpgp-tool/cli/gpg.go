package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xpgp/gpg"
	"github.com/effective-security/xpgp/internal/version"
	"github.com/effective-security/xpgp/x/print"
)

// DumpCmd prints every packet of the input
type DumpCmd struct {
	In   []string `kong:"arg" required:"" help:"input files, - for stdin"`
	JSON bool     `help:"print as JSON"`
}

// Run the command
func (a *DumpCmd) Run(ctx *Cli) error {
	events, err := ctx.Decode(a.In)
	if err != nil {
		return err
	}

	if a.JSON {
		print.EventsJSON(ctx.Writer(), events)
	} else {
		print.Events(ctx.Writer(), events)
	}
	return nil
}

// VerifyCmd verifies signatures of the input
type VerifyCmd struct {
	In []string `kong:"arg" required:"" help:"input files, - for stdin"`
}

// Run the command
func (a *VerifyCmd) Run(ctx *Cli) error {
	events, err := ctx.Decode(a.In)
	if err != nil {
		return err
	}

	w := ctx.Writer()
	total, failed := 0, 0
	for _, ev := range events {
		if ev.Kind != gpg.EventSignature {
			continue
		}
		total++

		v := ev.Verification
		issuer := "-"
		if id := ev.Signature.IssuerKeyID(); id != nil {
			issuer = fmt.Sprintf("%016X", *id)
		}
		fmt.Fprintf(w, "%s %s %s: %s\n", ev.Signature.SigType, ev.Signature.HashAlgo, issuer, v.Verdict)

		switch v.Verdict {
		case gpg.VerdictInvalid, gpg.VerdictDigestMismatch:
			failed++
			fmt.Fprintf(w, "  %s\n", v.Reason.Error())
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d signatures failed verification", failed, total)
	}
	fmt.Fprintf(w, "verified %d signatures\n", total)
	return nil
}

// FingerprintCmd prints fingerprints and key ids of the keys in the input
type FingerprintCmd struct {
	In []string `kong:"arg" required:"" help:"input files, - for stdin"`
}

// Run the command
func (a *FingerprintCmd) Run(ctx *Cli) error {
	events, err := ctx.Decode(a.In)
	if err != nil {
		return err
	}

	for _, ev := range events {
		switch ev.Kind {
		case gpg.EventPublicKey:
			fmt.Fprintf(ctx.Writer(), "pub 0x%s %s\n", ev.Key.FingerprintString(), ev.Key.KeyIDString())
		case gpg.EventSubkey:
			fmt.Fprintf(ctx.Writer(), "sub 0x%s %s\n", ev.Key.FingerprintString(), ev.Key.KeyIDString())
		}
	}
	return nil
}

// VersionCmd prints the version
type VersionCmd struct {
	JSON bool `help:"print as JSON"`
}

// Run the command
func (a *VersionCmd) Run(ctx *Cli) error {
	v := version.Current()
	if a.JSON {
		ctx.WriteJSON(v)
		return nil
	}
	fmt.Fprintln(ctx.Writer(), v.String())
	return nil
}
