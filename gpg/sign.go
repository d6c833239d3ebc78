package gpg

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
)

// ClearSignFile wraps the file content in a cleartext signature, written to
// out. An empty keyID signs with the default key of the environment.
func ClearSignFile(ctx context.Context, f io.Reader, out io.Writer, keyID string, env *Environment) error {
	return sign(ctx, []string{"--clearsign"}, f, out, keyID, env)
}

// DetachSignFile writes an armored detached signature over the file content
// to out. An empty keyID signs with the default key of the environment.
func DetachSignFile(ctx context.Context, f io.Reader, out io.Writer, keyID string, env *Environment) error {
	return sign(ctx, []string{"--detach-sign", "--armor"}, f, out, keyID, env)
}

func sign(ctx context.Context, options []string, f io.Reader, out io.Writer, keyID string, env *Environment) error {
	data, err := io.ReadAll(f)
	if err != nil {
		return errors.WithStack(err)
	}

	if keyID != "" {
		options = append(options, "--local-user", keyID)
	}

	res, err := Run(ctx, options, env, data)
	if err != nil {
		return err
	}
	if res.ExitStatus != 0 {
		return errors.WithStack(&SigningError{Output: diagnostic(res)})
	}

	_, err = out.Write(res.Stdout)
	return errors.WithStack(err)
}
