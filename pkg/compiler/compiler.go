package compiler

import (
	"time"

	"github.com/kartiknair/fun/pkg/ast"
	"github.com/kartiknair/fun/pkg/gen"
	"github.com/kartiknair/fun/pkg/lexer"
	"github.com/kartiknair/fun/pkg/parser"
	"github.com/sirupsen/logrus"
)

var (
	// logger instance
	log = logrus.New()
)

// SetLogLevelString changes global module log level.
func SetLogLevelString(level string) error {
	ll, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	log.Level = ll
	return nil // OK
}

// SetLogLevel changes global module log level.
func SetLogLevel(level logrus.Level) {
	log.Level = level
}

// GetLogLevel gets global module log level.
func GetLogLevel() logrus.Level {
	return log.Level
}

// Lex tokenizes source into a fresh module.
func Lex(path string, source string) (*ast.Module, error) {
	m := &ast.Module{Path: path, Source: source}

	start := time.Now()
	if err := lexer.Lex(m); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"path":   path,
		"tokens": len(m.Tokens),
	}).Debugf("lexed in %s", time.Since(start))

	return m, nil
}

// Frontend lexes and parses source. The returned module is valid only when
// no error is returned.
func Frontend(path string, source string) (*ast.Module, error) {
	m, err := Lex(path, source)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := parser.Parse(m); err != nil {
		return nil, err
	}

	entry := log.WithField("path", path)
	entry.WithField("statements", len(m.Statements)).
		Debugf("parsed in %s", time.Since(start))

	if m.Discarded > 0 {
		entry.Warnf("%d statement(s) next to `fun main` were dropped", m.Discarded)
	}
	if m.Unparsed > 0 {
		entry.Warnf("%d token(s) after `fun main` were not parsed", m.Unparsed)
	}

	return m, nil
}

// Compile translates source into the target language.
func Compile(path string, source string, target gen.Target) (string, error) {
	m, err := Frontend(path, source)
	if err != nil {
		return "", err
	}

	start := time.Now()
	out, err := gen.Gen(m, target)
	if err != nil {
		return "", err
	}

	log.WithFields(logrus.Fields{
		"path":   path,
		"target": target,
		"bytes":  len(out),
	}).Debugf("generated in %s", time.Since(start))

	return out, nil
}
