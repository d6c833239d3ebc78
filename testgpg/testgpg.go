// Package testgpg provides throwaway OpenPGP identities and fake gpg
// executables for tests.
package testgpg

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/require"
)

// Identity is an ephemeral OpenPGP identity. The private key is not
// protected by a passphrase so batch imports and signing need no pinentry.
type Identity struct {
	Name  string
	Email string

	Entity *openpgp.Entity
}

// NewIdentity generates an ed25519 identity, panics on error.
func NewIdentity(name, email string) *Identity {
	cfg := &packet.Config{
		Algorithm: packet.PubKeyAlgoEdDSA,
	}
	entity, err := openpgp.NewEntity(name, "", email, cfg)
	if err != nil {
		panic(err)
	}
	return &Identity{
		Name:   name,
		Email:  email,
		Entity: entity,
	}
}

// UserID returns the identity in "name <email>" form.
func (i *Identity) UserID() string {
	return fmt.Sprintf("%s <%s>", i.Name, i.Email)
}

// KeyID returns the hex id of the primary key.
func (i *Identity) KeyID() string {
	return i.Entity.PrimaryKey.KeyIdString()
}

// Fingerprint returns the full hex fingerprint of the primary key.
func (i *Identity) Fingerprint() string {
	return strings.ToUpper(hex.EncodeToString(i.Entity.PrimaryKey.Fingerprint))
}

// PublicKeyArmor returns the armored public key, panics on error.
func (i *Identity) PublicKeyArmor() []byte {
	var b bytes.Buffer
	w, err := armor.Encode(&b, openpgp.PublicKeyType, nil)
	if err != nil {
		panic(err)
	}
	if err := i.Entity.Serialize(w); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	b.WriteString("\n")
	return b.Bytes()
}

// PrivateKeyArmor returns the armored unprotected private key, panics on
// error.
func (i *Identity) PrivateKeyArmor() []byte {
	var b bytes.Buffer
	w, err := armor.Encode(&b, openpgp.PrivateKeyType, nil)
	if err != nil {
		panic(err)
	}
	if err := i.Entity.SerializePrivate(w, nil); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	b.WriteString("\n")
	return b.Bytes()
}

// PublicKeyBinary returns the public key in binary packet form, panics on
// error.
func (i *Identity) PublicKeyBinary() []byte {
	var b bytes.Buffer
	if err := i.Entity.Serialize(&b); err != nil {
		panic(err)
	}
	return b.Bytes()
}

// ClearSign wraps msg in a cleartext signature made with this identity,
// panics on error.
func (i *Identity) ClearSign(msg []byte) []byte {
	var b bytes.Buffer
	w, err := clearsign.Encode(&b, i.Entity.PrivateKey, nil)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(msg); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	b.WriteString("\n")
	return b.Bytes()
}

// DetachSign returns an armored detached signature over msg, panics on
// error.
func (i *Identity) DetachSign(msg []byte) []byte {
	var b bytes.Buffer
	err := openpgp.ArmoredDetachSign(&b, i.Entity, bytes.NewReader(msg), nil)
	if err != nil {
		panic(err)
	}
	return b.Bytes()
}

// InstallTool writes an executable shell script into dir and returns its
// path. Tests put dir on PATH to control which gpg binaries an invocation
// finds.
func InstallTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755)
	require.NoError(t, err)
	return path
}
