package main

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/kartiknair/fun/pkg/compiler"
	"github.com/kartiknair/fun/pkg/config"
	"github.com/kartiknair/fun/pkg/diag"
	"github.com/urfave/cli/v2"
)

// regenerate compiles the file once, writing the result to the configured
// output or the app's writer. Compile errors are reported, not returned.
func regenerate(c *cli.Context, cfg *config.Config, filename string) error {
	code, err := ioutil.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("Failed while attempting to read source file.\n%s", err)
	}

	out, err := compiler.Compile(filename, string(code), cfg.TargetValue())
	if err != nil {
		fmt.Fprintln(c.App.ErrWriter, diag.Report(err))
		return nil
	}

	if c.IsSet("output") {
		if err := ioutil.WriteFile(cfg.Output, []byte(out), 0644); err != nil {
			return err
		}
		log.WithField("path", cfg.Output).Info("regenerated")
		return nil
	}

	_, err = fmt.Fprint(c.App.Writer, out)
	return err
}

// watchAction follows the directory of the source file rather than the file
// itself, so editors that save by renaming keep being noticed.
func watchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	filename := c.Args().First()
	if filename == "" {
		return errNoSource
	}

	path, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	if err := regenerate(c, cfg, path); err != nil {
		return err
	}

	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if e.Name != path || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.WithField("op", e.Op).Debugf("%s changed", filename)
			if err := regenerate(c, cfg, path); err != nil {
				return err
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watch error")
		}
	}
}
