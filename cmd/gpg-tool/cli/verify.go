package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xgpg/gpg"
)

// VerifyCmd verifies signatures on a file
type VerifyCmd struct {
	File      string `kong:"arg" required:"" help:"signed file, use - for stdin"`
	Signature string `help:"optional, detached signature file"`
}

// Run the command
func (a *VerifyCmd) Run(ctx *Cli) error {
	env, err := ctx.Environment()
	if err != nil {
		return err
	}

	signed, err := ctx.ReadFile(a.File)
	if err != nil {
		return errors.WithMessage(err, "unable to load signed file")
	}

	if a.Signature != "" {
		var sig []byte
		sig, err = os.ReadFile(a.Signature)
		if err != nil {
			return errors.WithMessage(err, "unable to load signature file")
		}
		err = gpg.VerifyDetachedFile(ctx.Context(), bytes.NewReader(signed), bytes.NewReader(sig), env)
	} else {
		err = gpg.VerifyFile(ctx.Context(), bytes.NewReader(signed), env)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Writer(), "Signature: OK\n")
	return nil
}
