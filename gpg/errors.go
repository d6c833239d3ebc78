package gpg

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrNoImplementation is returned when none of the candidate gpg
	// executables could be found
	ErrNoImplementation = errors.New("no GnuPG implementation available")

	// ErrClosed is returned on any access to an environment after Close
	ErrClosed = errors.New("environment has been closed")
)

// ImportError is returned when gpg rejects a key import.
type ImportError struct {
	// Output is the diagnostic output of the gpg process
	Output string
}

// Error implements the error interface
func (e *ImportError) Error() string {
	return "key import failed: " + e.Output
}

// VerificationError is returned when gpg does not accept a signature.
type VerificationError struct {
	// Output is the diagnostic output of the gpg process
	Output string
}

// Error implements the error interface
func (e *VerificationError) Error() string {
	return "verification failed: " + e.Output
}

// SigningError is returned when gpg fails to produce a signature.
type SigningError struct {
	// Output is the diagnostic output of the gpg process
	Output string
}

// Error implements the error interface
func (e *SigningError) Error() string {
	return "signing failed: " + e.Output
}
