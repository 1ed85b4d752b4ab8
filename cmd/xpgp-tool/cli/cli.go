package cli

import (
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/ctl"
	"github.com/effective-security/xlog"
	"github.com/effective-security/xpgp/gpg"
	"github.com/effective-security/xpgp/x/print"
	"github.com/spf13/afero"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xpgp", "cli")

// Cli provides CLI context to run commands
type Cli struct {
	Version ctl.VersionFlag `name:"version" help:"Print version information and quit" hidden:""`

	Cfg      string `help:"Location of decoder options file, yaml or json"`
	Debug    bool   `short:"D" help:"Enable debug mode"`
	LogLevel string `short:"l" help:"Set the logging level (debug|info|warn|error)" default:"error"`

	Armored              *bool `short:"a" help:"Input is ASCII armored"`
	VerifyCertifications *bool `help:"Verify user id certifications and primary key bindings"`
	MaxInputSize         int   `help:"Maximum input size in bytes, 0 for no limit"`

	// Stdin is the source to read from, typically set to os.Stdin
	stdin io.Reader
	// Output is the destination for all output from the command, typically set to os.Stdout
	output io.Writer
	// ErrOutput is the destinaton for errors.
	// If not set, errors will be written to os.StdError
	errOutput io.Writer

	opts *gpg.Options
}

// Reader is the source to read from, typically set to os.Stdin
func (c *Cli) Reader() io.Reader {
	if c.stdin != nil {
		return c.stdin
	}
	return os.Stdin
}

// WithReader allows to specify a custom reader
func (c *Cli) WithReader(reader io.Reader) *Cli {
	c.stdin = reader
	return c
}

// Writer returns a writer for control output
func (c *Cli) Writer() io.Writer {
	if c.output != nil {
		return c.output
	}
	return os.Stdout
}

// WithWriter allows to specify a custom writer
func (c *Cli) WithWriter(out io.Writer) *Cli {
	c.output = out
	return c
}

// ErrWriter returns a writer for control output
func (c *Cli) ErrWriter() io.Writer {
	if c.errOutput != nil {
		return c.errOutput
	}
	return os.Stderr
}

// WithErrWriter allows to specify a custom error writer
func (c *Cli) WithErrWriter(out io.Writer) *Cli {
	c.errOutput = out
	return c
}

// AfterApply hook sets the log level
func (c *Cli) AfterApply(_ *kong.Kong, _ kong.Vars) error {
	if c.Debug {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		val := strings.TrimLeft(c.LogLevel, "=")
		l, err := xlog.ParseLevel(strings.ToUpper(val))
		if err != nil {
			return errors.WithStack(err)
		}
		xlog.SetGlobalLogLevel(l)
	}
	return nil
}

// WriteJSON prints response to out
func (c *Cli) WriteJSON(value interface{}) {
	print.JSON(c.Writer(), value)
}

// Options returns decoder options: the --cfg file if specified,
// overridden by the flags that were set
func (c *Cli) Options() (*gpg.Options, error) {
	if c.opts != nil {
		return c.opts, nil
	}

	opts := &gpg.Options{}
	if c.Cfg != "" {
		var err error
		opts, err = gpg.LoadOptions(c.Cfg)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to load options")
		}
	}
	if c.Armored != nil {
		opts.Armored = *c.Armored
	}
	if c.VerifyCertifications != nil {
		opts.VerifyCertifications = *c.VerifyCertifications
	}
	if c.MaxInputSize > 0 {
		opts.MaxInputSize = c.MaxInputSize
	}
	c.opts = opts
	return opts, nil
}

// ReadFile reads from stdin if the file is "-", otherwise from gpg.Vfs
func (c *Cli) ReadFile(filename string) ([]byte, error) {
	if filename == "" {
		return nil, errors.New("empty file name")
	}
	if filename == "-" {
		b, err := io.ReadAll(c.Reader())
		return b, errors.WithStack(err)
	}
	b, err := afero.ReadFile(gpg.Vfs, filename)
	return b, errors.WithStack(err)
}

// Decode decodes the files in order, "-" reads from stdin
func (c *Cli) Decode(files []string) ([]*gpg.Event, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}

	var events []*gpg.Event
	for _, file := range files {
		logger.KV(xlog.DEBUG, "file", file, "armored", opts.Armored)

		var data []byte
		var list []*gpg.Event
		data, err = c.ReadFile(file)
		if err == nil {
			list, err = gpg.Decode(data, opts)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to decode %q", file)
		}
		events = append(events, list...)
	}
	return events, nil
}
