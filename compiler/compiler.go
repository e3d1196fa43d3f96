// Package compiler ties the front end, translator and printer together.
package compiler

import (
	_ "embed"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/evampp/jsast"
	"github.com/pontaoski/evampp/parser"
	"github.com/pontaoski/evampp/printer"
	"github.com/pontaoski/evampp/sexp"
	"github.com/pontaoski/evampp/translator"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/evampp", "compiler")

//go:embed evampp-runtime.js
var runtimeJS []byte

// Runtime is the JavaScript runtime compiled programs require.
func Runtime() []byte {
	return runtimeJS
}

type Options struct {
	Indent int
}

type Result struct {
	Forms     sexp.List
	AST       *jsast.Program
	Target    string
	Functions []translator.FunctionInfo
}

type Compiler struct {
	opts Options
}

func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

func (c *Compiler) Compile(src string) (*Result, error) {
	return c.CompileReader(strings.NewReader(src), "<input>")
}

func (c *Compiler) CompileFile(path string) (*Result, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	defer handle.Close()

	return c.CompileReader(handle, path)
}

// CompileReader runs every stage on one source file. Each call uses a fresh
// translator, so nothing leaks between compiles.
func (c *Compiler) CompileReader(r io.Reader, filename string) (*Result, error) {
	forms, err := parser.ParseProgram(r, filename)
	if err != nil {
		return nil, err
	}

	t := translator.New()
	prog, err := t.TranslateProgram(forms)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Forms:     forms,
		AST:       prog,
		Target:    printer.New(c.opts.Indent).Program(prog),
		Functions: t.Functions(),
	}
	plog.Debugf("compiled %s: %d top level statements, %d functions", filename, len(prog.Body.Statements), len(res.Functions))

	return res, nil
}

// WriteOutput writes the compiled program to path and the runtime next to it.
func WriteOutput(path string, res *Result) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return tracerr.Wrap(err)
	}

	if err := ioutil.WriteFile(path, []byte(res.Target), 0644); err != nil {
		return tracerr.Wrap(err)
	}

	rt := filepath.Join(dir, printer.RuntimeModule+".js")
	if err := ioutil.WriteFile(rt, runtimeJS, 0644); err != nil {
		return tracerr.Wrap(err)
	}

	plog.Infof("wrote %s and %s", path, rt)
	return nil
}
