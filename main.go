package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/repr"
	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/evampp/compiler"
	"github.com/pontaoski/evampp/config"
	"github.com/pontaoski/evampp/interp"
	"github.com/pontaoski/evampp/repl"
	"github.com/pontaoski/evampp/scheduler"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/evampp", "main")

const starter = `// spawned functions run as processes that take turns
(def greet (name)
  (begin
    (print "hello" name)
    (sleep 10)
    (print "bye" name)))

(spawn greet "alice")
(spawn greet "bob")
`

func main() {
	app := &cli.App{
		Name:  "evampp",
		Usage: "eva to javascript compiler with cooperative processes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: config.FileName,
				Usage: "module file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG or TRACE",
			},
		},
		Before: setupLogging,
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			if term.IsTerminal(int(os.Stderr.Fd())) {
				tracerr.PrintSourceColor(err)
			} else {
				tracerr.PrintSource(err)
			}
			os.Exit(1)
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "create a module in the current directory",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return cli.Exit("no module name provided", 1)
					}

					mod := config.Default(name)
					if err := config.Save(c.String("config"), mod); err != nil {
						return err
					}
					if _, err := os.Stat(mod.Entry); os.IsNotExist(err) {
						if err := ioutil.WriteFile(mod.Entry, []byte(starter), 0644); err != nil {
							return tracerr.Wrap(err)
						}
					}

					plog.Infof("created module %s", name)
					return nil
				},
			},
			{
				Name:      "build",
				Usage:     "compile a file to javascript",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "output file",
					},
					&cli.BoolFlag{
						Name:  "dump",
						Usage: "print the javascript instead of writing it",
					},
					&cli.BoolFlag{
						Name:  "ast",
						Usage: "print the syntax tree",
					},
					&cli.IntFlag{
						Name:  "indent",
						Usage: "spaces per indentation level",
					},
				},
				Action: func(c *cli.Context) error {
					mod, res, err := compileArg(c)
					if err != nil {
						return err
					}

					if c.Bool("ast") {
						repr.Println(res.AST)
					}
					if c.Bool("dump") {
						fmt.Print(res.Target)
						return nil
					}

					out := c.String("output")
					if out == "" {
						out = mod.Output()
					}
					return compiler.WriteOutput(out, res)
				},
			},
			{
				Name:      "run",
				Usage:     "compile a file and run it",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "fake-clock",
						Usage: "sleep in virtual time",
					},
				},
				Action: func(c *cli.Context) error {
					_, res, err := compileArg(c)
					if err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
					defer stop()

					start := time.Now()
					in := interp.New(os.Stdout, scheduler.New(clock(c)))
					if err := in.Run(ctx, res.AST); err != nil {
						return err
					}

					plog.Infof("finished in %s", time.Since(start))
					return nil
				},
			},
			{
				Name:      "functions",
				Usage:     "list the functions of a file and their process bodies",
				ArgsUsage: "[file]",
				Action: func(c *cli.Context) error {
					_, res, err := compileArg(c)
					if err != nil {
						return err
					}

					out, err := yaml.Marshal(res.Functions)
					if err != nil {
						return tracerr.Wrap(err)
					}
					fmt.Print(string(out))
					return nil
				},
			},
			{
				Name:  "repl",
				Usage: "compile forms interactively",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "run",
						Usage: "also run every input",
					},
					&cli.BoolFlag{
						Name:  "fake-clock",
						Usage: "sleep in virtual time",
					},
				},
				Action: func(c *cli.Context) error {
					mod, err := loadModule(c)
					if err != nil {
						return err
					}

					return repl.Start(os.Stdin, os.Stdout, repl.Options{
						Indent: mod.Indent,
						Run:    c.Bool("run"),
						Clock:  clock(c),
					})
				},
			},
		},
	}

	app.Run(os.Args)
}

func loadModule(c *cli.Context) (config.Module, error) {
	path := c.String("config")
	fallback := strings.TrimSuffix(filepath.Base(c.Args().First()), config.Extension)
	if fallback == "" || fallback == "." {
		fallback = "main"
	}

	mod, err := config.LoadOrDefault(path, fallback)
	if err != nil {
		return mod, err
	}
	if c.IsSet("indent") {
		mod.Indent = c.Int("indent")
	}
	return mod, nil
}

// compileArg compiles the file named on the command line, or the module
// entry when there is none.
func compileArg(c *cli.Context) (config.Module, *compiler.Result, error) {
	mod, err := loadModule(c)
	if err != nil {
		return mod, nil, err
	}

	file := c.Args().First()
	if file == "" {
		file = mod.Entry
	}
	plog.Debugf("compiling %s", file)

	res, err := compiler.New(compiler.Options{Indent: mod.Indent}).CompileFile(file)
	return mod, res, err
}

func clock(c *cli.Context) scheduler.Clock {
	if c.Bool("fake-clock") {
		return scheduler.NewFakeClock(time.Now())
	}
	return scheduler.RealClock{}
}

func setupLogging(c *cli.Context) error {
	level := c.String("log-level")
	if level == "" {
		mod, err := config.Load(c.String("config"))
		if err == nil {
			level = mod.LogLevel
		} else {
			level = "INFO"
		}
	}

	lvl, err := capnslog.ParseLevel(strings.ToUpper(level))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid log level %q", level), 1)
	}

	capnslog.SetFormatter(capnslog.NewPrettyFormatter(os.Stderr, lvl >= capnslog.DEBUG))
	capnslog.SetGlobalLogLevel(lvl)
	return nil
}
