// Package repl is an interactive loop that compiles Eva input as it is
// typed and shows the JavaScript it turns into.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/pontaoski/evampp/compiler"
	"github.com/pontaoski/evampp/interp"
	"github.com/pontaoski/evampp/printer"
	"github.com/pontaoski/evampp/scheduler"
	"github.com/ztrue/tracerr"
	"golang.org/x/term"
)

const (
	Prompt             = "eva> "
	ContinuationPrompt = "...> "
)

const help = `:ast   toggle syntax tree output
:run   toggle running each input
:help  show this text
:quit  leave`

type Options struct {
	Indent int
	Run    bool
	Clock  scheduler.Clock
}

// LineReader is the input side of the loop. *term.Terminal satisfies it.
type LineReader interface {
	ReadLine() (string, error)
	SetPrompt(prompt string)
}

type REPL struct {
	opts     Options
	compiler *compiler.Compiler
	printer  *printer.Printer
	interp   *interp.Interpreter
	showAST  bool
}

func New(opts Options) *REPL {
	return &REPL{
		opts:     opts,
		compiler: compiler.New(compiler.Options{Indent: opts.Indent}),
		printer:  printer.New(opts.Indent),
	}
}

// Start runs the loop on in and out, in raw mode when in is a terminal.
func Start(in *os.File, out *os.File, opts Options) error {
	r := New(opts)

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return r.Loop(newPlainReader(in, out), out)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return tracerr.Wrap(err)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, Prompt)
	if w, h, err := term.GetSize(int(out.Fd())); err == nil {
		t.SetSize(w, h)
	}

	return r.Loop(t, t)
}

// Loop reads inputs until EOF or :quit. An input ends once its
// parentheses balance, so forms may span several lines.
func (r *REPL) Loop(lines LineReader, out io.Writer) error {
	var buf strings.Builder

	for {
		if buf.Len() == 0 {
			lines.SetPrompt(Prompt)
		} else {
			lines.SetPrompt(ContinuationPrompt)
		}

		line, err := lines.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return tracerr.Wrap(err)
		}

		if buf.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ":") {
				if r.command(trimmed, out) {
					return nil
				}
				continue
			}
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		if depth(buf.String()) > 0 {
			continue
		}

		r.eval(buf.String(), out)
		buf.Reset()
	}
}

func (r *REPL) command(cmd string, out io.Writer) (quit bool) {
	switch cmd {
	case ":quit", ":q":
		return true
	case ":ast":
		r.showAST = !r.showAST
		fmt.Fprintf(out, "ast output %s\n", onOff(r.showAST))
	case ":run":
		r.opts.Run = !r.opts.Run
		fmt.Fprintf(out, "running %s\n", onOff(r.opts.Run))
	case ":help":
		fmt.Fprintln(out, help)
	default:
		fmt.Fprintf(out, "unknown command %s, try :help\n", cmd)
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (r *REPL) eval(src string, out io.Writer) {
	res, err := r.compiler.Compile(src)
	if err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
		return
	}

	if r.showAST {
		fmt.Fprintln(out, repr.String(res.AST, repr.Indent("  ")))
	}
	for _, stmt := range res.AST.Body.Statements {
		fmt.Fprintln(out, r.printer.Print(stmt))
	}

	if !r.opts.Run {
		return
	}
	// globals live across inputs
	if r.interp == nil {
		r.interp = interp.New(out, scheduler.New(r.opts.Clock))
	}
	if err := r.interp.Run(context.Background(), res.AST); err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
	}
}

// depth is the number of lists left open in src.
func depth(src string) int {
	n := 0
	inString, escaped := false, false

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '(':
			n++
		case c == ')':
			n--
		}
	}
	if inString {
		n++
	}
	return n
}

type plainReader struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

func newPlainReader(in io.Reader, out io.Writer) *plainReader {
	return &plainReader{in: bufio.NewReader(in), out: out}
}

func (p *plainReader) SetPrompt(prompt string) {
	p.prompt = prompt
}

func (p *plainReader) ReadLine() (string, error) {
	fmt.Fprint(p.out, p.prompt)
	line, err := p.in.ReadString('\n')
	if err == io.EOF && line != "" {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
