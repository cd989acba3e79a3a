package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/kartiknair/fun/pkg/gen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data string) string {
	dir, err := ioutil.TempDir("", "fun-config-")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	name := filepath.Join(dir, "fun.yaml")
	require.NoError(t, ioutil.WriteFile(name, []byte(data), 0644))
	return name
}

// check YAML data is accepted and valid
func testParseGood(t *testing.T, data string) *Config {
	cfg := Default()
	if assert.NoError(t, cfg.Parse([]byte(data))) {
		assert.NoError(t, cfg.Validate())
	}
	return cfg
}

// check YAML data is rejected either by parsing or validation
func testParseBad(t *testing.T, data string, expected string) {
	cfg := Default()
	err := cfg.Parse([]byte(data))
	if err == nil {
		err = cfg.Validate()
	}
	if assert.Error(t, err, "data: %q", data) {
		assert.Contains(t, err.Error(), expected)
	}
}

// test default values
func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "c", cfg.Target)
	assert.Equal(t, gen.C, cfg.TargetValue())
	assert.Equal(t, "cc", cfg.CC)
	assert.Equal(t, []string{"-lgc"}, cfg.LDFlags)
	assert.Equal(t, "a.out", cfg.Output)
	assert.False(t, cfg.KeepIntermediate)
}

// test YAML parsing
func TestParse(t *testing.T) {
	cfg := testParseGood(t, `
target: llvm
cc: clang
cflags: [-O2, -g]
output: hello
keep-intermediate: true
logging: debug
`)
	assert.Equal(t, gen.LLVM, cfg.TargetValue())
	assert.Equal(t, "clang", cfg.CC)
	assert.Equal(t, []string{"-O2", "-g"}, cfg.CFlags)
	assert.Equal(t, []string{"-lgc"}, cfg.LDFlags) // kept from defaults
	assert.Equal(t, "hello", cfg.Output)
	assert.True(t, cfg.KeepIntermediate)
	assert.Equal(t, "debug", cfg.Logging)

	cfg = testParseGood(t, "ldflags: [-L/opt/gc/lib, -lgc]")
	assert.Equal(t, []string{"-L/opt/gc/lib", "-lgc"}, cfg.LDFlags)

	testParseBad(t, "target: wasm", "bad target")
	testParseBad(t, "logging: noisy", "bad logging level")
	testParseBad(t, `cc: ""`, "no C compiler configured")
	testParseBad(t, "unknown-key: 1", "unknown-key")
	testParseBad(t, "cflags: 5", "cannot unmarshal")
}

// test reading from files
func TestParseFile(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.ParseFile(""))
	assert.Equal(t, Default(), cfg)

	name := writeFile(t, "output: prog\n")
	if assert.NoError(t, cfg.ParseFile(name)) {
		assert.Equal(t, "prog", cfg.Output)
	}

	err := cfg.ParseFile(filepath.Join(filepath.Dir(name), "missing.yaml"))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to read configuration from")
	}

	name = writeFile(t, "output: [\n")
	err = cfg.ParseFile(name)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to parse configuration from")
	}
}

// test environment override
func TestApplyEnv(t *testing.T) {
	old, had := os.LookupEnv(CCEnv)
	defer func() {
		if had {
			os.Setenv(CCEnv, old)
		} else {
			os.Unsetenv(CCEnv)
		}
	}()

	cfg := Default()
	os.Setenv(CCEnv, " gcc-12 ")
	cfg.ApplyEnv()
	assert.Equal(t, "gcc-12", cfg.CC)

	cfg = Default()
	os.Setenv(CCEnv, "")
	cfg.ApplyEnv()
	assert.Equal(t, "cc", cfg.CC)
}
