// Package gpg drives an external GnuPG binary for OpenPGP operations.
//
// This package supports:
//   - Running gpg with automatic discovery of the installed implementation
//   - Isolated environments with a private GNUPGHOME directory
//   - Signature verification for cleartext and detached signatures
//   - Cleartext and detached signing
//   - Key import, listing and export
//
// The package shells out to gpg rather than reimplementing the OpenPGP
// protocol, so verification verdicts and trust handling match the system
// installation. Verifying without a dedicated Environment depends on the
// ambient configuration of the calling user.
package gpg
