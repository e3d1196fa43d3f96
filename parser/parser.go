package parser

import (
	"io"
	"strconv"
	"strings"

	"github.com/pontaoski/evampp/lexer"
	"github.com/pontaoski/evampp/sexp"
	"github.com/pontaoski/evampp/types"
	"github.com/ztrue/tracerr"
)

type Parser struct {
	l     *lexer.Lexer
	forms []sexp.Form
}

func NewParser(l *lexer.Lexer) Parser {
	return Parser{l: l}
}

// Parse reads top level forms until EOF.
func (p *Parser) Parse() (forms []sexp.Form, err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if ok {
				err = tracerr.Wrap(rerr)
			} else {
				panic(r)
			}
		}
	}()

	for !p.l.PeekIs(types.EOF) {
		p.forms = append(p.forms, p.parseForm())
	}

	return p.forms, nil
}

func (p *Parser) parseForm() sexp.Form {
	tok, lit := p.l.LexExpecting(types.LPAREN, types.NUMBER, types.STRING, types.SYMBOL)

	switch tok.Kind {
	case types.NUMBER:
		n, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			panic(err)
		}
		return sexp.Number(n)
	case types.STRING:
		return sexp.String(lit)
	case types.SYMBOL:
		return sexp.Symbol(lit)
	case types.LPAREN:
		return p.parseList()
	}

	panic("unhandled")
}

// parseList should be called when the parser is past the opening paren.
func (p *Parser) parseList() sexp.List {
	l := sexp.List{}
	for !p.l.PeekIs(types.RPAREN) {
		l = append(l, p.parseForm())
	}
	p.l.LexExpecting(types.RPAREN)

	return l
}

// ParseProgram parses a whole source file and wraps its top level forms
// in an implicit (begin ...).
func ParseProgram(r io.Reader, filename string) (sexp.List, error) {
	p := NewParser(lexer.NewLexer(r, filename))
	forms, err := p.Parse()
	if err != nil {
		return nil, err
	}

	return append(sexp.List{sexp.Symbol("begin")}, forms...), nil
}

// ParseString is ParseProgram over an in-memory source.
func ParseString(src string) (sexp.List, error) {
	return ParseProgram(strings.NewReader(src), "<string>")
}
