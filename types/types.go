package types

import (
	"fmt"
)

type Position struct {
	Line     int
	Column   int
	Filename string
}

type Span struct {
	From Position
	To   Position
}

type TokenKind int

const (
	EOF TokenKind = iota
	ILLEGAL

	LPAREN
	RPAREN

	NUMBER
	STRING
	SYMBOL
)

func (t TokenKind) String() string {
	data := map[TokenKind]string{
		EOF:     "EOF",
		ILLEGAL: "ILLEGAL",
		LPAREN:  "LPAREN",
		RPAREN:  "RPAREN",
		NUMBER:  "NUMBER",
		STRING:  "STRING",
		SYMBOL:  "SYMBOL",
	}
	if s, ok := data[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", int(t))
}

func (p Position) String() string {
	if p.Filename == "" {
		p.Filename = "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%d:%d", s.From, s.To.Line, s.To.Column)
}

func SingleCharSpan(p Position) Span {
	return Span{p, p}
}

type Token struct {
	Kind     TokenKind
	Location Span
}
