// Package keyring inspects OpenPGP key material without importing it into a
// gpg keyring. Trust decisions remain with the external gpg binary; this
// package only reads what a key file contains.
package keyring

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xgpg", "keyring")

// Load reads an openpgp.EntityList from the given key material. Both armored
// and binary keyrings are supported; multiple armored blocks are merged.
func Load(data []byte) (openpgp.EntityList, error) {
	if !bytes.Contains(data, []byte("-----BEGIN PGP")) {
		el, err := openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return el, nil
	}

	keyring := make(openpgp.EntityList, 0)

	// armor.Decode reads ahead, so all blocks must come from one buffered
	// reader and every body must be consumed before the next Decode
	r := bufio.NewReader(bytes.NewReader(data))
	for {
		block, err := armor.Decode(r)
		if err != nil {
			if err != io.EOF {
				logger.KV(xlog.TRACE, "reason", "no_block", "err", err.Error())
			}
			break
		}

		if block.Type == openpgp.PublicKeyType || block.Type == openpgp.PrivateKeyType {
			// extract keys
			el, err := openpgp.ReadKeyRing(block.Body)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			// append keyring
			keyring = append(keyring, el...)
		} else {
			// position the reader at the next block
			if _, err := io.Copy(io.Discard, block.Body); err != nil {
				logger.KV(xlog.TRACE, "reason", "skip_block", "err", err.Error())
				break
			}
		}
	}

	return keyring, nil
}

// LoadFromFile reads an openpgp.EntityList from the given file path.
func LoadFromFile(path string) (openpgp.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	k, err := Load(data)
	if err != nil {
		return nil, err
	}

	return k, nil
}

// LoadFromFiles reads an openpgp.EntityList from the given file paths.
//
// This function might typically be used to read all trusted keys of a
// distribution channel before importing them.
func LoadFromFiles(files []string) (openpgp.EntityList, error) {
	keyring := make(openpgp.EntityList, 0)
	for _, path := range files {
		// read keyring in file
		el, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}

		// append keyring
		keyring = append(keyring, el...)
	}

	return keyring, nil
}

// KeyInfo describes a key found in key material.
type KeyInfo struct {
	// KeyID is the short hex id of the primary key
	KeyID string `json:"key_id" yaml:"key_id"`
	// Fingerprint is the full hex fingerprint of the primary key
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	// UserIDs lists the identities bound to the key
	UserIDs []string `json:"user_ids,omitempty" yaml:"user_ids,omitempty"`
	// CreatedAt is the creation time of the primary key
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// List returns information about each key in the given key material.
func List(data []byte) ([]KeyInfo, error) {
	el, err := Load(data)
	if err != nil {
		return nil, err
	}

	infos := make([]KeyInfo, 0, len(el))
	for _, entity := range el {
		pk := entity.PrimaryKey
		info := KeyInfo{
			KeyID:       pk.KeyIdString(),
			Fingerprint: strings.ToUpper(hex.EncodeToString(pk.Fingerprint)),
			CreatedAt:   pk.CreationTime,
		}
		for name := range entity.Identities {
			info.UserIDs = append(info.UserIDs, name)
		}
		sort.Strings(info.UserIDs)
		infos = append(infos, info)
	}

	return infos, nil
}

// ListFromFile returns information about each key in the given file.
func ListFromFile(path string) ([]KeyInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return List(data)
}
