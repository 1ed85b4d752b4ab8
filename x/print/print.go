// Package print provides helper package to print decoded OpenPGP packets.
package print

import (
	"fmt"
	"io"

	"github.com/ugorji/go/codec"
)

var (
	// jsonEncPPHandle is used to encode json with a human readable pretty printed out put, as well as
	// line breaks/indents, fields are serialized in a canonical order everytime
	jsonEncPPHandle codec.JsonHandle
)

func init() {
	jsonEncPPHandle.BasicHandle.EncodeOptions.Canonical = true
	jsonEncPPHandle.Indent = -1
	jsonEncPPHandle.HTMLCharsAsIs = true
}

var newLine = []byte("\n")

// JSON prints value to out
func JSON(w io.Writer, value interface{}) {
	var json []byte
	err := codec.NewEncoderBytes(&json, &jsonEncPPHandle).Encode(value)
	if err != nil {
		fmt.Fprintf(w, "ERROR: failed to encode: %s\n", err.Error())
		return
	}
	_, _ = w.Write(json)
	_, _ = w.Write(newLine)
}
