package cli

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xgpg/gpg"
)

// ClearSignCmd wraps a file in a cleartext signature
type ClearSignCmd struct {
	File  string `kong:"arg" required:"" help:"file to sign, use - for stdin"`
	KeyID string `help:"optional, key id or user id to sign with"`
	Out   string `help:"optional, output file for the signed message"`
}

// Run the command
func (a *ClearSignCmd) Run(ctx *Cli) error {
	env, err := ctx.Environment()
	if err != nil {
		return err
	}

	data, err := ctx.ReadFile(a.File)
	if err != nil {
		return errors.WithMessage(err, "unable to load file")
	}

	keyID := a.KeyID
	if keyID == "" {
		keyID = ctx.Config().KeyID
	}

	var signed bytes.Buffer
	err = gpg.ClearSignFile(ctx.Context(), bytes.NewReader(data), &signed, keyID, env)
	if err != nil {
		return err
	}

	return writeOutput(ctx, a.Out, signed.Bytes())
}

// DetachSignCmd produces an armored detached signature over a file
type DetachSignCmd struct {
	File  string `kong:"arg" required:"" help:"file to sign, use - for stdin"`
	KeyID string `help:"optional, key id or user id to sign with"`
	Out   string `help:"optional, output file for the signature"`
}

// Run the command
func (a *DetachSignCmd) Run(ctx *Cli) error {
	env, err := ctx.Environment()
	if err != nil {
		return err
	}

	data, err := ctx.ReadFile(a.File)
	if err != nil {
		return errors.WithMessage(err, "unable to load file")
	}

	keyID := a.KeyID
	if keyID == "" {
		keyID = ctx.Config().KeyID
	}

	var sig bytes.Buffer
	err = gpg.DetachSignFile(ctx.Context(), bytes.NewReader(data), &sig, keyID, env)
	if err != nil {
		return err
	}

	return writeOutput(ctx, a.Out, sig.Bytes())
}

// writeOutput saves data to the file, or prints it when no file is given
func writeOutput(ctx *Cli, out string, data []byte) error {
	if out == "" {
		_, err := ctx.Writer().Write(data)
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(out, data, 0664))
}
