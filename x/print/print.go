package print

import (
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xgpg/gpg"
	"github.com/effective-security/xgpg/keyring"
	"github.com/ugorji/go/codec"
)

var (
	// jsonEncPPHandle is used to encode json with a human readable pretty printed output, as well as
	// line breaks/indents, fields are serialized in a canonical order everytime
	jsonEncPPHandle codec.JsonHandle
)

func init() {
	jsonEncPPHandle.BasicHandle.EncodeOptions.Canonical = true
	jsonEncPPHandle.Indent = -1
}

var newLine = []byte("\n")

// JSON prints value to out
func JSON(out io.Writer, value interface{}) error {
	var json []byte
	err := codec.NewEncoderBytes(&json, &jsonEncPPHandle).Encode(value)
	if err != nil {
		return errors.WithMessage(err, "failed to encode")
	}

	_, _ = out.Write(json)
	_, _ = out.Write(newLine)

	return nil
}

// Keys prints a list of keys
func Keys(w io.Writer, keys []gpg.Key) {
	for _, k := range keys {
		fmt.Fprintf(w, "Key: %s\n", k.KeyID)
		if k.Fingerprint != "" {
			fmt.Fprintf(w, "  Fingerprint: %s\n", k.Fingerprint)
		}
		for _, uid := range k.UserIDs {
			fmt.Fprintf(w, "  UID: %s\n", uid)
		}
	}
}

// KeyInfos prints a list of keys found in key material
func KeyInfos(w io.Writer, infos []keyring.KeyInfo) {
	for _, k := range infos {
		fmt.Fprintf(w, "Key: %s\n", k.KeyID)
		fmt.Fprintf(w, "  Fingerprint: %s\n", k.Fingerprint)
		for _, uid := range k.UserIDs {
			fmt.Fprintf(w, "  UID: %s\n", uid)
		}
		fmt.Fprintf(w, "  Created: %s\n", k.CreatedAt.Format(time.RFC3339))
	}
}
