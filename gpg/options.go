package gpg

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Options controls how input is decoded
type Options struct {
	// Armored input is passed through the ASCII armor decoder first
	Armored bool `json:"armored" yaml:"armored"`
	// MaxInputSize caps the input in bytes, 0 means no limit
	MaxInputSize int `json:"max_input_size" yaml:"max_input_size"`
	// VerifyCertifications enables cryptographic checks of user id
	// certifications (0x10 to 0x13) and primary key bindings (0x19).
	// Subkey bindings are always checked.
	VerifyCertifications bool `json:"verify_certifications" yaml:"verify_certifications"`
}

func (o *Options) orDefault() *Options {
	if o == nil {
		return &Options{}
	}
	return o
}

// LoadOptions loads options from a YAML file, or a JSON file if the name
// ends with .json
func LoadOptions(filename string) (*Options, error) {
	f, err := Vfs.Open(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	opts := new(Options)
	if strings.HasSuffix(filename, ".json") {
		err = json.NewDecoder(f).Decode(opts)
	} else {
		err = yaml.NewDecoder(f).Decode(opts)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to decode file: %s", filename)
	}
	if opts.MaxInputSize < 0 {
		return nil, errors.Errorf("invalid max_input_size: %d", opts.MaxInputSize)
	}
	return opts, nil
}
