package gpg

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xgpg/metricskey"
	"github.com/effective-security/xlog"
)

// removeAll is used to remove the private home directory
var removeAll = os.RemoveAll

// Environment is a private GNUPGHOME directory with its own keyring and
// agent, isolated from the ambient gpg configuration of the calling user.
// The zero value is not usable; create one with NewEnvironment or
// AdoptEnvironment. An Environment is intended for a single owner: the
// internal lock only protects the lifecycle state, individual gpg operations
// are not serialized against each other.
type Environment struct {
	mu     sync.Mutex
	home   string
	impls  []string
	impl   string
	owned  bool
	closed bool
}

// EnvironmentOption customizes a new Environment.
type EnvironmentOption func(*Environment)

// WithImplementations overrides the candidate executables tried by this
// environment.
func WithImplementations(impls ...string) EnvironmentOption {
	return func(e *Environment) {
		e.impls = impls
	}
}

// NewEnvironment creates an Environment with a fresh private home directory,
// removed on Close.
func NewEnvironment(opts ...EnvironmentOption) (*Environment, error) {
	home, err := os.MkdirTemp("", "xgpg-")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	e := &Environment{
		home:  home,
		owned: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	logger.KV(xlog.DEBUG, "action", "new_environment", "home", home)
	return e, nil
}

// AdoptEnvironment wraps an existing GNUPGHOME directory. Close shuts down
// the agent but leaves the directory in place.
func AdoptEnvironment(home string, opts ...EnvironmentOption) (*Environment, error) {
	fi, err := os.Stat(home)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("not a directory: %q", home)
	}

	e := &Environment{
		home: home,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// WithEnvironment runs fn with a fresh Environment and guarantees teardown on
// all exit paths. The error from fn wins over a teardown error.
func WithEnvironment(fn func(*Environment) error, opts ...EnvironmentOption) (err error) {
	env, err := NewEnvironment(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := env.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(env)
}

// Home returns the private GNUPGHOME directory.
func (e *Environment) Home() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", errors.WithStack(ErrClosed)
	}
	return e.home, nil
}

// implementations returns the candidate executables for this environment,
// narrowed to the cached one once an invocation succeeded.
func (e *Environment) implementations() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.impl != "" {
		return []string{e.impl}
	}
	if len(e.impls) > 0 {
		return e.impls
	}
	return DefaultImplementations
}

// setImplementation caches the executable that launched successfully.
func (e *Environment) setImplementation(impl string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.impl == "" {
		e.impl = impl
	}
}

// Close shuts down the gpg agent of this environment and removes its home
// directory when owned. Close is idempotent; a failed Close leaves the
// environment open so it can be retried.
func (e *Environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	defer metricskey.PerfGPGEnvironment.MeasureSince(time.Now(), "close")

	// the agent is started lazily by gpg, there is nothing to kill unless
	// an invocation resolved an implementation
	if e.impl != "" {
		if err := killAgent(e.home); err != nil {
			return err
		}
	}

	if e.owned {
		err := removeAll(e.home)
		if err != nil && !os.IsNotExist(err) {
			return errors.WithStack(err)
		}
	}

	e.closed = true
	return nil
}

// killAgent asks gpgconf to shut down all daemons bound to the home
// directory. The exit status is ignored: the agent may have exited already.
// A missing gpgconf means a legacy gpg without persistent daemons, which is
// tolerated after a best-effort process sweep.
func killAgent(home string) error {
	cmd := exec.Command("gpgconf", "--kill", "all")
	cmd.Env = []string{
		"PATH=" + os.Getenv("PATH"),
		"GNUPGHOME=" + home,
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.KV(xlog.WARNING,
				"reason", "kill_agent",
				"home", home,
				"exit_status", exitErr.ExitCode(),
				"output", string(out),
			)
			return nil
		}
		if errors.Is(err, exec.ErrNotFound) {
			logger.KV(xlog.DEBUG, "reason", "no_gpgconf", "home", home)
			sweepAgents(home)
			return nil
		}
		return errors.WithStack(err)
	}
	return nil
}

// ImportKey imports key material from the reader into the environment.
func (e *Environment) ImportKey(ctx context.Context, keyfile io.Reader) error {
	return ImportKeys(ctx, keyfile, e)
}

// VerifyFile verifies signatures on the file content using the keyring of
// this environment.
func (e *Environment) VerifyFile(ctx context.Context, f io.Reader) error {
	return VerifyFile(ctx, f, e)
}

// VerifyDetachedFile verifies a detached signature over the signed content
// using the keyring of this environment.
func (e *Environment) VerifyDetachedFile(ctx context.Context, signed, sig io.Reader) error {
	return VerifyDetachedFile(ctx, signed, sig, e)
}

// ClearSignFile wraps the file content in a cleartext signature using a key
// of this environment.
func (e *Environment) ClearSignFile(ctx context.Context, f io.Reader, out io.Writer, keyID string) error {
	return ClearSignFile(ctx, f, out, keyID, e)
}

// DetachSignFile produces an armored detached signature over the file
// content using a key of this environment.
func (e *Environment) DetachSignFile(ctx context.Context, f io.Reader, out io.Writer, keyID string) error {
	return DetachSignFile(ctx, f, out, keyID, e)
}
