package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kartiknair/fun/pkg/config"
	"github.com/kartiknair/fun/pkg/gen"
)

// toolchain hands generated code to the downstream C compiler driver.
type toolchain struct {
	cc               string
	cflags           []string
	ldflags          []string
	target           gen.Target
	keepIntermediate bool
}

func newToolchain(cfg *config.Config) *toolchain {
	return &toolchain{
		cc:               cfg.CC,
		cflags:           cfg.CFlags,
		ldflags:          cfg.LDFlags,
		target:           cfg.TargetValue(),
		keepIntermediate: cfg.KeepIntermediate,
	}
}

// command builds the compiler invocation reading source from stdin.
func (t *toolchain) command(source string, executable string) *exec.Cmd {
	args := append([]string{}, t.cflags...)
	args = append(args, "-x", t.target.Language(), "-o", executable, "-")
	args = append(args, t.ldflags...)

	cmd := exec.Command(t.cc, args...)
	cmd.Stdin = strings.NewReader(source)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Build compiles source into an executable at path.
func (t *toolchain) Build(source string, path string) error {
	if t.keepIntermediate {
		intermediate := strings.TrimSuffix(path, filepath.Ext(path)) + t.target.Extension()
		if err := ioutil.WriteFile(intermediate, []byte(source), 0644); err != nil {
			return fmt.Errorf("failed to keep generated code: %s", err)
		}
		log.WithField("path", intermediate).Debug("kept generated code")
	}

	cmd := t.command(source, path)
	log.WithField("args", cmd.Args).Debug("compiling")

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("Failed while compiling generated %s. %s", t.target, err)
	}
	log.Debugf("%s compiled and linked in %s", t.cc, time.Since(start))

	return nil
}

// Run builds source into a temporary executable and runs it with args.
func (t *toolchain) Run(source string, args []string) error {
	tmpDir, err := ioutil.TempDir("", "fun-tmp--*")
	if err != nil {
		return fmt.Errorf("Failed while creating temp directory.\n%s", err)
	}
	defer os.RemoveAll(tmpDir)

	exePath := filepath.Join(tmpDir, "fun-exe.out")
	if err := t.Build(source, exePath); err != nil {
		return err
	}

	runCmd := exec.Command(exePath, args...)
	runCmd.Stdin = os.Stdin
	runCmd.Stdout = os.Stdout
	runCmd.Stderr = os.Stderr

	if err := runCmd.Run(); err != nil {
		return fmt.Errorf("Failed to run compiled binary.\n%s", err)
	}
	return nil
}
