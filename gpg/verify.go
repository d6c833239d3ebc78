package gpg

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// VerifyFile checks the signatures on the file content, piped to gpg on
// stdin. A nil env verifies against the ambient gpg configuration of the
// calling user, so the verdict then depends on the keyrings and trust
// settings outside this process. No trust judgment is made here beyond what
// the external binary reports.
func VerifyFile(ctx context.Context, f io.Reader, env *Environment) error {
	data, err := io.ReadAll(f)
	if err != nil {
		return errors.WithStack(err)
	}

	res, err := Run(ctx, []string{"--verify"}, env, data)
	if err != nil {
		return err
	}
	if res.ExitStatus != 0 {
		return errors.WithStack(&VerificationError{Output: diagnostic(res)})
	}
	return nil
}

// VerifyDetachedFile checks a detached signature over the signed content.
// gpg reads a single stream from stdin, so the signature is spooled to a
// private temporary file and the signed content is piped in.
func VerifyDetachedFile(ctx context.Context, signed, sig io.Reader, env *Environment) error {
	sigData, err := io.ReadAll(sig)
	if err != nil {
		return errors.WithStack(err)
	}

	sigFile, err := os.CreateTemp("", "xgpg-sig-")
	if err != nil {
		return errors.WithStack(err)
	}
	defer os.Remove(sigFile.Name())

	_, err = sigFile.Write(sigData)
	if err != nil {
		_ = sigFile.Close()
		return errors.WithStack(err)
	}
	err = sigFile.Close()
	if err != nil {
		return errors.WithStack(err)
	}

	data, err := io.ReadAll(signed)
	if err != nil {
		return errors.WithStack(err)
	}

	res, err := Run(ctx, []string{"--verify", sigFile.Name(), "-"}, env, data)
	if err != nil {
		return err
	}
	if res.ExitStatus != 0 {
		return errors.WithStack(&VerificationError{Output: diagnostic(res)})
	}
	return nil
}
