package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xgpg/gpg"
	"github.com/effective-security/xgpg/keyring"
	"github.com/effective-security/xgpg/x/print"
)

// KeysCmd is the parent for keys command
type KeysCmd struct {
	List    KeysListCmd    `cmd:"" help:"list keys in the keyring"`
	Export  KeysExportCmd  `cmd:"" help:"export a public key"`
	Inspect KeysInspectCmd `cmd:"" help:"print keys in a key file without importing"`
}

// KeysListCmd prints keys in the keyring
type KeysListCmd struct {
	JSON *bool `help:"optional, print keys as JSON"`
}

// Run the command
func (a *KeysListCmd) Run(ctx *Cli) error {
	env, err := ctx.Environment()
	if err != nil {
		return err
	}

	keys, err := gpg.ListKeys(ctx.Context(), env)
	if err != nil {
		return err
	}

	if a.JSON != nil && *a.JSON == true {
		return ctx.WriteJSON(keys)
	}
	print.Keys(ctx.Writer(), keys)
	return nil
}

// KeysExportCmd exports the armored public key
type KeysExportCmd struct {
	KeyID string `kong:"arg" required:"" help:"key id or user id to export"`
	Out   string `help:"optional, output file for the armored key"`
}

// Run the command
func (a *KeysExportCmd) Run(ctx *Cli) error {
	env, err := ctx.Environment()
	if err != nil {
		return err
	}

	armored, err := gpg.ExportKey(ctx.Context(), a.KeyID, env)
	if err != nil {
		return err
	}

	return writeOutput(ctx, a.Out, armored)
}

// KeysInspectCmd prints keys found in a key file
type KeysInspectCmd struct {
	File string `kong:"arg" required:"" help:"key file to inspect"`
	JSON *bool  `help:"optional, print keys as JSON"`
}

// Run the command
func (a *KeysInspectCmd) Run(ctx *Cli) error {
	data, err := ctx.ReadFile(a.File)
	if err != nil {
		return errors.WithMessage(err, "unable to load key file")
	}

	infos, err := keyring.List(data)
	if err != nil {
		return errors.WithMessage(err, "unable to parse key file")
	}

	if a.JSON != nil && *a.JSON == true {
		return ctx.WriteJSON(infos)
	}
	print.KeyInfos(ctx.Writer(), infos)
	return nil
}
