package gpg

import (
	"bufio"
	"bytes"
	"io"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/effective-security/xpgp/metricskey"
	"github.com/spf13/afero"
)

// Vfs is the filesystem used to read files and configs
var Vfs = afero.NewOsFs()

// ErrInputTooLarge is returned when the input exceeds Options.MaxInputSize
var ErrInputTooLarge = errors.New("input too large")

// ArmoredBlock is one decoded ASCII armor block
type ArmoredBlock struct {
	Type   string
	Header map[string]string
	Bytes  []byte
}

// Dearmor decodes every armored block in data, in order
func Dearmor(data []byte) ([]*ArmoredBlock, error) {
	// armor.Decode reuses a bufio.Reader passed to it, so consecutive calls
	// continue after the previous block
	r := bufio.NewReader(bytes.NewReader(data))

	var blocks []*ArmoredBlock
	for {
		block, err := armor.Decode(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithMessage(err, "failed to decode armor")
		}
		body, err := io.ReadAll(block.Body)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to read armored %q", block.Type)
		}
		logger.KV(xlog.TRACE, "block", block.Type, "len", len(body))
		blocks = append(blocks, &ArmoredBlock{
			Type:   block.Type,
			Header: block.Header,
			Bytes:  body,
		})
	}

	if len(blocks) == 0 {
		return nil, errors.New("no armored block found")
	}
	return blocks, nil
}

// Decode decodes data as a packet stream, or as a sequence of armored
// blocks when opts.Armored is set. Every stream or block gets its own Context.
func Decode(data []byte, opts *Options) ([]*Event, error) {
	opts = opts.orDefault()
	if opts.MaxInputSize > 0 && len(data) > opts.MaxInputSize {
		return nil, errors.Wrapf(ErrInputTooLarge, "%d bytes, limit %d", len(data), opts.MaxInputSize)
	}

	if !opts.Armored {
		defer metricskey.PerfDecode.MeasureSince(time.Now(), "binary")
		_, events, err := DecodeStream(data, opts)
		return events, err
	}

	defer metricskey.PerfDecode.MeasureSince(time.Now(), "armored")
	blocks, err := Dearmor(data)
	if err != nil {
		return nil, err
	}

	var events []*Event
	for _, block := range blocks {
		_, list, err := DecodeStream(block.Bytes, opts)
		if err != nil {
			return nil, errors.WithMessagef(err, "armored %q", block.Type)
		}
		events = append(events, list...)
	}
	return events, nil
}

// DecodeFile reads the whole file and decodes it
func DecodeFile(path string, opts *Options) ([]*Event, error) {
	opts = opts.orDefault()
	if opts.MaxInputSize > 0 {
		fi, err := Vfs.Stat(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if fi.Size() > int64(opts.MaxInputSize) {
			return nil, errors.Wrapf(ErrInputTooLarge, "%s: %d bytes, limit %d", path, fi.Size(), opts.MaxInputSize)
		}
	}

	data, err := afero.ReadFile(Vfs, path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	events, err := Decode(data, opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to decode %s", path)
	}
	return events, nil
}

// DecodeFiles decodes the given files in order and concatenates the events
func DecodeFiles(files []string, opts *Options) ([]*Event, error) {
	var events []*Event
	for _, path := range files {
		list, err := DecodeFile(path, opts)
		if err != nil {
			return nil, err
		}
		events = append(events, list...)
	}
	return events, nil
}
