package gpg

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Key describes a public key in a gpg keyring.
type Key struct {
	// KeyID is the short hex id of the primary key
	KeyID string `json:"key_id" yaml:"key_id"`
	// Fingerprint is the full hex fingerprint of the primary key
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	// UserIDs lists the identities bound to the key
	UserIDs []string `json:"user_ids,omitempty" yaml:"user_ids,omitempty"`
}

// ImportKeys imports key material from the reader, piped to gpg on stdin.
// A nil env imports into the ambient keyring of the calling user.
func ImportKeys(ctx context.Context, keyfile io.Reader, env *Environment) error {
	data, err := io.ReadAll(keyfile)
	if err != nil {
		return errors.WithStack(err)
	}

	res, err := Run(ctx, []string{"--import"}, env, data)
	if err != nil {
		return err
	}
	if res.ExitStatus != 0 {
		return errors.WithStack(&ImportError{Output: diagnostic(res)})
	}
	return nil
}

// ListKeys returns the public keys known to the environment, or to the
// ambient keyring of the calling user when env is nil.
func ListKeys(ctx context.Context, env *Environment) ([]Key, error) {
	res, err := Run(ctx, []string{"--list-keys", "--with-colons", "--fingerprint"}, env, nil)
	if err != nil {
		return nil, err
	}
	if res.ExitStatus != 0 {
		return nil, errors.Errorf("unable to list keys: %s", diagnostic(res))
	}
	return parseColonKeys(res.Stdout), nil
}

// ListKeys returns the public keys in the keyring of this environment.
func (e *Environment) ListKeys(ctx context.Context) ([]Key, error) {
	return ListKeys(ctx, e)
}

// ExportKey returns the armored public key for the given key id or user id.
func ExportKey(ctx context.Context, keyID string, env *Environment) ([]byte, error) {
	res, err := Run(ctx, []string{"--export", "--armor", keyID}, env, nil)
	if err != nil {
		return nil, err
	}
	if res.ExitStatus != 0 {
		return nil, errors.Errorf("unable to export key %q: %s", keyID, diagnostic(res))
	}
	// gpg exits 0 with empty output for an unknown id
	if len(res.Stdout) == 0 {
		return nil, errors.Errorf("key not found: %q", keyID)
	}
	return res.Stdout, nil
}

// ExportKey returns the armored public key from this environment.
func (e *Environment) ExportKey(ctx context.Context, keyID string) ([]byte, error) {
	return ExportKey(ctx, keyID, e)
}

// parseColonKeys extracts keys from `--list-keys --with-colons` output,
// collecting the primary key id, its fingerprint and the bound user ids.
func parseColonKeys(out []byte) []Key {
	var keys []Key
	var cur *Key

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), ":")
		if len(fields) < 10 {
			continue
		}
		switch fields[0] {
		case "pub":
			keys = append(keys, Key{KeyID: fields[4]})
			cur = &keys[len(keys)-1]
			if fields[9] != "" {
				cur.UserIDs = append(cur.UserIDs, fields[9])
			}
		case "fpr":
			if cur != nil && cur.Fingerprint == "" {
				cur.Fingerprint = fields[9]
			}
		case "uid":
			if cur != nil && fields[9] != "" {
				cur.UserIDs = append(cur.UserIDs, fields[9])
			}
		case "sub", "ssb":
			// subkey records follow the primary data, stop collecting
			cur = nil
		}
	}
	return keys
}
