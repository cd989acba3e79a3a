package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/alecthomas/repr"
	"github.com/kartiknair/fun/pkg/compiler"
	"github.com/kartiknair/fun/pkg/config"
	"github.com/kartiknair/fun/pkg/diag"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	// logger instance
	log = logrus.New()
)

var errNoSource = errors.New("Source file not provided.")

// loadConfig builds the configuration from defaults, the --config file, the
// environment and finally the command line flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if err := cfg.ParseFile(c.String("config")); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if c.IsSet("target") {
		cfg.Target = c.String("target")
	}
	if c.IsSet("cc") {
		cfg.CC = c.String("cc")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("keep") {
		cfg.KeepIntermediate = c.Bool("keep")
	}
	if c.IsSet("log-level") {
		cfg.Logging = c.String("log-level")
	}
	if c.Bool("debug") {
		cfg.Logging = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := compiler.SetLogLevelString(cfg.Logging); err != nil {
		return nil, err
	}
	log.Level = compiler.GetLogLevel()

	return cfg, nil
}

// readSource reads the file named by the first argument. Only `run` takes
// further arguments, which it hands to the program.
func readSource(c *cli.Context) (string, string, error) {
	if c.Args().Len() > 1 && c.Command.Name != "run" {
		return "", "", errors.New(`Too many arguments provided.

If you've provided flags make sure they go before the arguments.
    Wrong: $ fun build file.fun -o foo
    Right: $ fun build -o foo file.fun`)
	}

	filename := c.Args().First()
	if filename == "" {
		return "", "", errNoSource
	}

	code, err := ioutil.ReadFile(filename)
	if err != nil {
		return "", "", fmt.Errorf("Failed while attempting to read source file.\n%s", err)
	}

	return filename, string(code), nil
}

// exitError turns a compile error into the process exit status: 2 when the
// input could not be tokenized, 1 for everything else.
func exitError(err error) error {
	if err == nil {
		return nil
	}

	code := 1
	if diag.IsFatal(err) {
		code = 2
	}
	return cli.Exit(diag.Report(err), code)
}

func compileFile(c *cli.Context, cfg *config.Config) (string, error) {
	filename, code, err := readSource(c)
	if err != nil {
		return "", err
	}

	out, err := compiler.Compile(filename, code, cfg.TargetValue())
	if err != nil {
		return "", exitError(err)
	}
	return out, nil
}

func emitAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	out, err := compileFile(c, cfg)
	if err != nil {
		return err
	}

	if !c.IsSet("output") {
		_, err = fmt.Fprint(c.App.Writer, out)
		return err
	}

	return ioutil.WriteFile(cfg.Output, []byte(out), 0644)
}

func buildAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	out, err := compileFile(c, cfg)
	if err != nil {
		return err
	}

	return newToolchain(cfg).Build(out, cfg.Output)
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	out, err := compileFile(c, cfg)
	if err != nil {
		return err
	}

	return newToolchain(cfg).Run(out, c.Args().Tail())
}

func tokensAction(c *cli.Context) error {
	if _, err := loadConfig(c); err != nil {
		return err
	}

	filename, code, err := readSource(c)
	if err != nil {
		return err
	}

	m, err := compiler.Lex(filename, code)
	if err != nil {
		return exitError(err)
	}

	repr.New(c.App.Writer, repr.Indent("  ")).Println(m.Tokens)
	return nil
}

func astAction(c *cli.Context) error {
	if _, err := loadConfig(c); err != nil {
		return err
	}

	filename, code, err := readSource(c)
	if err != nil {
		return err
	}

	m, err := compiler.Frontend(filename, code)
	if err != nil {
		return exitError(err)
	}

	repr.New(c.App.Writer, repr.Indent("  ")).Println(m.Statements)
	return nil
}

func main() {
	targetFlag := &cli.StringFlag{
		Name:    "target",
		Aliases: []string{"t"},
		Usage:   "Language to generate: `c` or `llvm`.",
	}
	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Name of the output file.",
	}
	ccFlag := &cli.StringFlag{
		Name:  "cc",
		Usage: "C compiler used to build executables.",
	}
	keepFlag := &cli.BoolFlag{
		Name:  "keep",
		Usage: "Keep the generated source next to the executable.",
	}

	app := &cli.App{
		Name:  "fun",
		Usage: "Compiles fun programs to C or LLVM IR.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`.",
				EnvVars: []string{"FUN_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Logging level: debug, info, warning, error.",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Shorthand for --log-level=debug.",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "emit",
				Usage:     "Prints the generated code for the provided source file.",
				ArgsUsage: "<file.fun>",
				Flags:     []cli.Flag{targetFlag, outputFlag},
				Action:    emitAction,
			},
			{
				Name:      "build",
				Usage:     "Builds the provided source file to an executable.",
				ArgsUsage: "<file.fun>",
				Flags:     []cli.Flag{targetFlag, outputFlag, ccFlag, keepFlag},
				Action:    buildAction,
			},
			{
				Name:      "run",
				Usage:     "Builds and immediately runs the provided source file.",
				ArgsUsage: "<file.fun> [args...]",
				Flags:     []cli.Flag{targetFlag, ccFlag},
				Action:    runAction,
			},
			{
				Name:      "tokens",
				Usage:     "Dumps the tokens of the provided source file.",
				ArgsUsage: "<file.fun>",
				Action:    tokensAction,
			},
			{
				Name:      "ast",
				Usage:     "Dumps the syntax tree of the provided source file.",
				ArgsUsage: "<file.fun>",
				Action:    astAction,
			},
			{
				Name:      "watch",
				Usage:     "Regenerates code every time the provided source file changes.",
				ArgsUsage: "<file.fun>",
				Flags:     []cli.Flag{targetFlag, outputFlag},
				Action:    watchAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if _, ok := err.(cli.ExitCoder); ok {
			// already printed and handled by the app.
			return
		}
		log.Fatal(err)
	}
}
