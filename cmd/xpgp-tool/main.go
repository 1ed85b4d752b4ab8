package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/effective-security/x/ctl"
	"github.com/effective-security/xpgp/cmd/xpgp-tool/cli"
	"github.com/effective-security/xpgp/internal/version"
)

type app struct {
	cli.Cli

	Dump        cli.DumpCmd        `cmd:"" help:"print packets, subpackets and verification results"`
	Verify      cli.VerifyCmd      `cmd:"" help:"verify key binding signatures"`
	Fingerprint cli.FingerprintCmd `cmd:"" help:"print key fingerprints and key ids"`
	Ver         cli.VersionCmd     `cmd:"" name:"version" help:"print version"`
}

func main() {
	realMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

func realMain(args []string, out io.Writer, errout io.Writer, exit func(int)) {
	cl := app{
		Cli: cli.Cli{},
	}
	cl.Cli.WithErrWriter(errout).
		WithWriter(out)

	parser, err := kong.New(&cl,
		kong.Name("xpgp-tool"),
		kong.Description("OpenPGP packet tools"),
		kong.Writers(out, errout),
		kong.Exit(exit),
		ctl.BoolPtrMapper,
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version.Current().String(),
		})
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args[1:])
	parser.FatalIfErrorf(err)

	if ctx != nil {
		err = ctx.Run(&cl.Cli)
		ctx.FatalIfErrorf(err)
	}
}
