package cli

import (
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/ctl"
	"github.com/effective-security/xgpg/gpg"
	"github.com/effective-security/xgpg/x/print"
	"github.com/effective-security/xlog"
	"golang.org/x/net/context"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xgpg", "cli")

// Cli provides CLI context to run commands
type Cli struct {
	Version ctl.VersionFlag `name:"version" help:"Print version information and quit" hidden:""`

	Cfg      string `help:"Location of gpg-tool config file" type:"path"`
	Home     string `help:"Reuse an existing GNUPGHOME directory" type:"path"`
	Isolated bool   `help:"Run in a throwaway GNUPGHOME removed on exit"`
	Debug    bool   `short:"D" help:"Enable debug mode"`
	LogLevel string `short:"l" help:"Set the logging level (debug|info|warn|error)" default:"error"`

	// Stdin is the source to read from, typically set to os.Stdin
	stdin io.Reader
	// Output is the destination for all output from the command, typically set to os.Stdout
	output io.Writer
	// ErrOutput is the destinaton for errors.
	// If not set, errors will be written to os.StdError
	errOutput io.Writer

	ctx context.Context
	cfg *gpg.Config
	env *gpg.Environment
}

// Context for requests
func (c *Cli) Context() context.Context {
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	return c.ctx
}

// Reader is the source to read from, typically set to os.Stdin
func (c *Cli) Reader() io.Reader {
	if c.stdin != nil {
		return c.stdin
	}
	return os.Stdin
}

// WithReader allows to specify a custom reader
func (c *Cli) WithReader(reader io.Reader) *Cli {
	c.stdin = reader
	return c
}

// Writer returns a writer for control output
func (c *Cli) Writer() io.Writer {
	if c.output != nil {
		return c.output
	}
	return os.Stdout
}

// WithWriter allows to specify a custom writer
func (c *Cli) WithWriter(out io.Writer) *Cli {
	c.output = out
	return c
}

// ErrWriter returns a writer for control output
func (c *Cli) ErrWriter() io.Writer {
	if c.errOutput != nil {
		return c.errOutput
	}
	return os.Stderr
}

// WithErrWriter allows to specify a custom error writer
func (c *Cli) WithErrWriter(out io.Writer) *Cli {
	c.errOutput = out
	return c
}

// AfterApply hook loads config
func (c *Cli) AfterApply(_ *kong.Kong, _ kong.Vars) error {
	if c.Debug {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		val := strings.TrimLeft(c.LogLevel, "=")
		l, err := xlog.ParseLevel(strings.ToUpper(val))
		if err != nil {
			return errors.WithStack(err)
		}
		xlog.SetGlobalLogLevel(l)
	}

	if c.Cfg != "" {
		cfg, err := gpg.LoadConfig(c.Cfg)
		if err != nil {
			return errors.WithMessage(err, "unable to load configuration")
		}
		c.cfg = cfg
	}

	return nil
}

// Config returns the loaded configuration, or an empty one
func (c *Cli) Config() *gpg.Config {
	if c.cfg == nil {
		c.cfg = &gpg.Config{}
	}
	return c.cfg
}

// Environment returns the gpg environment selected by the flags, creating it
// on first use. A nil environment means the ambient gpg configuration of the
// calling user.
func (c *Cli) Environment() (*gpg.Environment, error) {
	if c.env != nil {
		return c.env, nil
	}

	cfg := c.Config()

	var err error
	switch {
	case c.Home != "":
		c.env, err = gpg.AdoptEnvironment(c.Home, c.envOptions()...)
	case c.Isolated:
		c.env, err = gpg.NewEnvironment(c.envOptions()...)
	case c.Cfg != "":
		c.env, err = cfg.NewEnvironment(c.Context())
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.env, nil
}

func (c *Cli) envOptions() []gpg.EnvironmentOption {
	var opts []gpg.EnvironmentOption
	if impls := c.Config().Implementations; len(impls) > 0 {
		opts = append(opts, gpg.WithImplementations(impls...))
	}
	return opts
}

// Release tears down the environment created for the command, removing the
// throwaway home when one was created
func (c *Cli) Release() {
	if c.env == nil {
		return
	}
	if err := c.env.Close(); err != nil {
		logger.KV(xlog.WARNING, "reason", "close_environment", "err", err.Error())
	}
	c.env = nil
}

// WriteJSON prints response to out
func (c *Cli) WriteJSON(value interface{}) error {
	return print.JSON(c.Writer(), value)
}

// ReadFile reads from stdin if the file is "-"
func (c *Cli) ReadFile(filename string) ([]byte, error) {
	if filename == "" {
		return nil, errors.New("empty file name")
	}
	if filename == "-" {
		return io.ReadAll(c.Reader())
	}
	return os.ReadFile(filename)
}
