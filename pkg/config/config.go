package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/kartiknair/fun/pkg/gen"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// CCEnv names the environment variable that overrides the configured
// downstream compiler.
const CCEnv = "FUN_CC"

// Config holds the build settings usually read from `fun.yaml`.
type Config struct {
	Target           string   `yaml:"target,omitempty"`
	CC               string   `yaml:"cc,omitempty"`
	CFlags           []string `yaml:"cflags,omitempty"`
	LDFlags          []string `yaml:"ldflags,omitempty"`
	Output           string   `yaml:"output,omitempty"`
	KeepIntermediate bool     `yaml:"keep-intermediate,omitempty"`
	Logging          string   `yaml:"logging,omitempty"`
}

// Default gets the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Target:  "c",
		CC:      "cc",
		LDFlags: []string{"-lgc"},
		Output:  "a.out",
		Logging: "info",
	}
}

// ParseFile reads YAML configuration on top of the current values.
// Keys missing from the file keep their value. Empty file name is a no-op.
func (cfg *Config) ParseFile(fileName string) error {
	if len(fileName) == 0 {
		return nil // OK
	}

	buf, err := ioutil.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("failed to read configuration from %q: %s", fileName, err)
	}

	if err := cfg.Parse(buf); err != nil {
		return fmt.Errorf("failed to parse configuration from %q: %s", fileName, err)
	}

	return nil // OK
}

// Parse decodes YAML data on top of the current values.
func (cfg *Config) Parse(data []byte) error {
	return yaml.UnmarshalStrict(data, cfg)
}

// ApplyEnv lets the environment override the downstream compiler.
func (cfg *Config) ApplyEnv() {
	if cc := strings.TrimSpace(os.Getenv(CCEnv)); cc != "" {
		cfg.CC = cc
	}
}

// Validate checks the values that can be wrong.
func (cfg *Config) Validate() error {
	if _, err := gen.ParseTarget(cfg.Target); err != nil {
		return fmt.Errorf("bad target: %s", err)
	}

	if len(cfg.CC) == 0 {
		return fmt.Errorf("no C compiler configured")
	}

	if len(cfg.Output) == 0 {
		return fmt.Errorf("no output file configured")
	}

	if len(cfg.Logging) > 0 {
		if _, err := logrus.ParseLevel(cfg.Logging); err != nil {
			return fmt.Errorf("bad logging level: %s", err)
		}
	}

	return nil // OK
}

// TargetValue gets the parsed target, C when the value is invalid.
func (cfg *Config) TargetValue() gen.Target {
	t, _ := gen.ParseTarget(cfg.Target)
	return t
}
