// Package config loads the optional YAML configuration file.
//
// Values missing from the file are filled from Default, command line flags
// override both, and the result is checked against the struct tags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"earshot/audio"
	"earshot/indicator"
)

type Config struct {
	Device    string           `yaml:"device,omitempty"`
	Gain      float64          `yaml:"gain" validate:"gt=0"`
	Sounds    string           `yaml:"sounds" validate:"oneof=on off"`
	Indicator indicator.Config `yaml:"indicator"`
}

func Default() Config {
	return Config{
		Gain:      audio.DefaultGain,
		Sounds:    "on",
		Indicator: indicator.DefaultConfig(),
	}
}

func (c Config) SoundsEnabled() bool {
	return c.Sounds != "off"
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report yaml key names, not Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// DefaultPath is config.yaml in the user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "earshot", "config.yaml")
}

// Load reads path, fills unset values from Default and validates. A missing
// file yields the defaults when ignoreNotFound is set.
func Load(path string, ignoreNotFound bool) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	switch {
	case os.IsNotExist(err) && ignoreNotFound:
	case err != nil:
		return Config{}, fmt.Errorf("cannot open configuration file %q: %w", path, err)
	default:
		defer func() {
			_ = f.Close()
		}()
		if err := decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("cannot load configuration file %q: %w", path, err)
		}
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Config{}, fmt.Errorf("merge defaults: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Apply overrides cfg with every non-zero value in flags and revalidates.
func Apply(cfg *Config, flags Config) error {
	if err := mergo.Merge(cfg, flags, mergo.WithOverride); err != nil {
		return fmt.Errorf("merge flags: %w", err)
	}
	return Validate(*cfg)
}

func Save(path string, cfg Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0700)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cannot open configuration file %q: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("cannot write file %q: %w", path, err)
	}
	return enc.Close()
}

func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldPath(e)+" "+formatValidationMessage(e))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// fieldPath drops the root type name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "ltfield":
		return fmt.Sprintf("must be lower than %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
