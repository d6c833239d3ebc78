package cli

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xgpg/gpg"
)

// ImportCmd imports OpenPGP keys into the keyring
type ImportCmd struct {
	Files []string `kong:"arg" required:"" help:"key files to import, use - for stdin"`
}

// Run the command
func (a *ImportCmd) Run(ctx *Cli) error {
	env, err := ctx.Environment()
	if err != nil {
		return err
	}

	for _, file := range a.Files {
		data, err := ctx.ReadFile(file)
		if err != nil {
			return errors.WithMessage(err, "unable to load key file")
		}

		err = gpg.ImportKeys(ctx.Context(), bytes.NewReader(data), env)
		if err != nil {
			return errors.WithMessagef(err, "unable to import %q", file)
		}
		fmt.Fprintf(ctx.Writer(), "imported: %s\n", file)
	}

	return nil
}
