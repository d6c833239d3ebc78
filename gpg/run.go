package gpg

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xgpg/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xgpg", "gpg")

// DefaultImplementations lists the gpg executables to try, in order of
// preference. Modern installations ship gpg2, legacy ones only gpg.
var DefaultImplementations = []string{"gpg2", "gpg"}

// Result is the outcome of a completed gpg invocation. A non-zero exit
// status is reported here rather than as an error, since gpg uses it to
// signal verdicts such as a bad signature.
type Result struct {
	// Implementation is the executable that ran
	Implementation string
	// ExitStatus is the exit code of the process
	ExitStatus int
	// Stdout is the full standard output of the process
	Stdout []byte
	// Stderr is the full diagnostic output of the process
	Stderr []byte
}

// Run executes gpg with the given options, writing stdin to the child and
// draining its output. The candidate executables are tried in order until one
// launches; an environment that already resolved its implementation
// short-circuits to that one, and the first executable to launch is cached on
// the environment for subsequent calls. With a non-nil env the child runs
// with a scrubbed environment of PATH and the private GNUPGHOME only,
// otherwise it inherits the caller's environment.
func Run(ctx context.Context, options []string, env *Environment, stdin []byte) (res *Result, err error) {
	started := time.Now()
	defer func() {
		if res != nil {
			metricskey.PerfGPGOperation.MeasureSince(started, res.Implementation, action(options))
		}
	}()

	args := append([]string{"--batch"}, options...)

	impls := DefaultImplementations
	var childEnv []string

	if env != nil {
		home, err := env.Home()
		if err != nil {
			return nil, err
		}
		impls = env.implementations()
		childEnv = []string{
			"PATH=" + os.Getenv("PATH"),
			"GNUPGHOME=" + home,
		}
	}

	for _, impl := range impls {
		res, err := runImpl(ctx, impl, args, childEnv, stdin)
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				logger.KV(xlog.DEBUG, "impl", impl, "status", "not_found")
				continue
			}
			return nil, err
		}

		if env != nil {
			env.setImplementation(impl)
		}
		return res, nil
	}

	return nil, errors.WithStack(ErrNoImplementation)
}

// runImpl launches a single candidate executable. A launch failure is
// returned as an error; a process that ran to completion yields a Result
// regardless of its exit status.
func runImpl(ctx context.Context, impl string, args []string, childEnv []string, stdin []byte) (*Result, error) {
	cmd := exec.CommandContext(ctx, impl, args...)
	if childEnv != nil {
		cmd.Env = childEnv
	}
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := &Result{
		Implementation: impl,
	}

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, errors.WithStack(err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.WithStack(ctxErr)
		}
		res.ExitStatus = exitErr.ExitCode()
	}

	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()

	logger.KV(xlog.TRACE,
		"impl", impl,
		"action", action(args),
		"exit_status", res.ExitStatus,
	)

	return res, nil
}

// action returns the metrics tag for an option list, the first long option
// other than the batch flag.
func action(options []string) string {
	for _, opt := range options {
		if strings.HasPrefix(opt, "--") && opt != "--batch" {
			return strings.TrimPrefix(opt, "--")
		}
	}
	return "run"
}

// diagnostic returns the decoded diagnostic output of a finished process.
func diagnostic(res *Result) string {
	return strings.TrimSpace(string(res.Stderr))
}
