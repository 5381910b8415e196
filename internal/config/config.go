// Package config loads the stand-in host's configuration file.
//
// The shim itself owns no configuration; everything here is what a real
// host would pass in at runtime (paths, loaded modules, version).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"spoilerviewer/internal/fingerprint"
)

// Config mirrors the YAML file.
type Config struct {
	Name        string      `yaml:"name" validate:"required"`
	Version     string      `yaml:"version" validate:"required"`
	Viewer      Viewer      `yaml:"viewer"`
	Fingerprint Fingerprint `yaml:"fingerprint"`
	Sources     Sources     `yaml:"sources"`
	// Modules lists the companion modules the host reports as loaded.
	Modules []string `yaml:"modules" validate:"dive,required"`
}

type Viewer struct {
	Artifact    string   `yaml:"artifact" validate:"required"`
	Runtime     string   `yaml:"runtime"`
	RuntimeArgs []string `yaml:"runtime_args"`
}

type Fingerprint struct {
	// Inputs are the two files digested into the build identifier. Empty
	// means the viewer artifact and the running executable.
	Inputs []string `yaml:"inputs" validate:"omitempty,len=2,dive,required"`
	Digest string   `yaml:"digest" validate:"omitempty,oneof=sha1 blake3"`
}

type Sources struct {
	PrimaryDir    string `yaml:"primary_dir"`
	SecondaryRoot string `yaml:"secondary_root"`
}

// Default returns the configuration used when no file is given: a jar
// viewer next to the executable, run with java -jar.
func Default() Config {
	artifact := "HKSpoilerViewer.jar"
	if exe, err := os.Executable(); err == nil {
		artifact = filepath.Join(filepath.Dir(exe), artifact)
	}
	return Config{
		Name:    "Spoiler Viewer",
		Version: "0.0.0",
		Viewer: Viewer{
			Artifact:    artifact,
			Runtime:     "java",
			RuntimeArgs: []string{"-jar"},
		},
		Fingerprint: Fingerprint{Digest: string(fingerprint.DigestSHA1)},
	}
}

// Load reads path on top of Default. Relative paths inside the file are
// resolved against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return Config{}, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return Config{}, fmt.Errorf("resolving config dir: %w", err)
	}
	cfg.resolveRelative(base)
	return cfg, nil
}

func (c *Config) resolveRelative(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Viewer.Artifact = abs(c.Viewer.Artifact)
	c.Sources.PrimaryDir = abs(c.Sources.PrimaryDir)
	c.Sources.SecondaryRoot = abs(c.Sources.SecondaryRoot)
	for i := range c.Fingerprint.Inputs {
		c.Fingerprint.Inputs[i] = abs(c.Fingerprint.Inputs[i])
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the version parses.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config error: %w", err)
	}
	if _, err := fingerprint.ParseVersion(c.Version); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// VersionTriple returns the parsed version. Call Validate first.
func (c *Config) VersionTriple() fingerprint.VersionTriple {
	v, _ := fingerprint.ParseVersion(c.Version)
	return v
}
