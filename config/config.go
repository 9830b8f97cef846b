// Package config provides standardized runtime configuration.
package config

import (
	"io/fs"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	koanffs "github.com/knadh/koanf/providers/fs"

	"github.com/zircuit-labs/zkr-go-capture/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-capture/xerrors/stacktrace"
)

const (
	defaultEnvPrefix     = "CFG_"
	defaultEnvSeparator  = "_"
	defaultConfSeparator = "."
	defaultSettingsPath  = "data/settings.toml"
)

type options struct {
	envPrefix    string
	filepath     string
	separator    string
	envSeparator string
}

// Option is an option func for NewConfiguration.
type Option func(options *options)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(options *options) {
		options.envPrefix = prefix
	}
}

// WithFilePath sets the path to the TOML file.
func WithFilePath(path string) Option {
	return func(options *options) {
		options.filepath = path
	}
}

// Configuration is a wrapper for koanf to hide complexity.
type Configuration struct {
	k *koanf.Koanf
}

// NewConfigurationFromMap allows a direct flat map to be used as configuration.
func NewConfigurationFromMap(cfg map[string]any) (*Configuration, error) {
	k := koanf.New(defaultConfSeparator)
	if err := k.Load(confmap.Provider(cfg, defaultConfSeparator), nil); err != nil {
		return nil, errclass.WrapAs(stacktrace.Wrap(err), errclass.Persistent)
	}
	return &Configuration{k: k}, nil
}

// NewConfiguration parses config from the given file system, overlaying
// values from environment variables. A nil file system uses env vars only.
func NewConfiguration(f fs.FS, opts ...Option) (*Configuration, error) {
	options := options{
		envPrefix:    defaultEnvPrefix,
		separator:    defaultConfSeparator,
		envSeparator: defaultEnvSeparator,
		filepath:     defaultSettingsPath,
	}
	for _, opt := range opts {
		opt(&options)
	}

	k := koanf.New(defaultConfSeparator)

	if f != nil {
		if err := k.Load(koanffs.Provider(f, options.filepath), toml.Parser()); err != nil {
			return nil, errclass.WrapAs(stacktrace.Wrap(err), errclass.Persistent)
		}
	}

	if err := k.Load(
		env.Provider(options.envPrefix, options.separator, envToConfig(options)),
		nil,
	); err != nil {
		return nil, errclass.WrapAs(stacktrace.Wrap(err), errclass.Persistent)
	}

	return &Configuration{k: k}, nil
}

// Unmarshal sets values in struct `a` from the config rooted at `path`.
// Values absent from the configuration leave the struct untouched.
func (c Configuration) Unmarshal(path string, a any) error {
	if err := c.k.Unmarshal(path, a); err != nil {
		return errclass.WrapAs(stacktrace.Wrap(err), errclass.Persistent)
	}
	return nil
}

// Exists reports whether the given path is present in the configuration.
func (c Configuration) Exists(path string) bool {
	return c.k.Exists(path)
}

// envToConfig is a factory producing key transforms for env vars.
// For example, env var `PREFIX_NESTED_VALUE` becomes `nested.value`.
func envToConfig(options options) func(s string) string {
	return func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(
				strings.TrimPrefix(s, options.envPrefix),
			),
			options.envSeparator,
			options.separator,
		)
	}
}
