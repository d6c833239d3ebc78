package gpg

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config provides gpg environment configuration
type Config struct {
	// Implementations specifies the gpg executables to try, in order of
	// preference. Empty means the package default.
	Implementations []string `json:"implementations" yaml:"implementations"`
	// Home specifies an existing GNUPGHOME directory to reuse.
	// Empty means a fresh private directory.
	Home string `json:"home" yaml:"home"`
	// KeyID specifies the default signing key
	KeyID string `json:"key_id" yaml:"key_id"`
	// Keyrings specifies key files imported into the environment
	Keyrings []string `json:"keyrings" yaml:"keyrings"`
}

// LoadConfig returns configuration loaded from a file
func LoadConfig(file string) (*Config, error) {
	if file == "" {
		return &Config{}, nil
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var config Config
	if strings.HasSuffix(file, ".json") {
		err = json.Unmarshal(raw, &config)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to unmarshal JSON: %q", file)
		}
	} else {
		err = yaml.Unmarshal(raw, &config)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to unmarshal YAML: %q", file)
		}
	}

	return &config, nil
}

// NewEnvironment builds an Environment from the configuration: an adopted
// one when Home is set, otherwise a fresh isolated one. The configured
// keyrings are imported before the environment is returned.
func (c *Config) NewEnvironment(ctx context.Context) (*Environment, error) {
	var opts []EnvironmentOption
	if len(c.Implementations) > 0 {
		opts = append(opts, WithImplementations(c.Implementations...))
	}

	var env *Environment
	var err error
	if c.Home != "" {
		env, err = AdoptEnvironment(c.Home, opts...)
	} else {
		env, err = NewEnvironment(opts...)
	}
	if err != nil {
		return nil, err
	}

	for _, path := range c.Keyrings {
		f, err := os.Open(path)
		if err != nil {
			_ = env.Close()
			return nil, errors.WithStack(err)
		}
		err = env.ImportKey(ctx, f)
		_ = f.Close()
		if err != nil {
			_ = env.Close()
			return nil, errors.WithMessagef(err, "unable to import keyring %q", path)
		}
	}

	return env, nil
}
