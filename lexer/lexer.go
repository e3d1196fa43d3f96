package lexer

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pontaoski/evampp/errors"
	"github.com/pontaoski/evampp/types"
)

type Lexer struct {
	pos          types.Position
	reader       *bufio.Reader
	peeked       *types.Token
	peekedString string
}

func NewLexer(reader io.Reader, filename string) *Lexer {
	return &Lexer{
		pos:    types.Position{Line: 1, Column: 0, Filename: filename},
		reader: bufio.NewReader(reader),
	}
}

func (l *Lexer) Pos() types.Position {
	return l.pos
}

func (l *Lexer) newline() {
	l.pos.Line++
	l.pos.Column = 0
}

func (l *Lexer) read() (rune, error) {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		return r, err
	}
	if r == '\n' {
		l.newline()
	} else {
		l.pos.Column++
	}
	return r, nil
}

// unread pushes the last rune back and restores the position saved
// before it was read.
func (l *Lexer) unread(saved types.Position) {
	if err := l.reader.UnreadRune(); err != nil {
		panic(err)
	}

	l.pos = saved
}

func (l *Lexer) kinded(t types.TokenKind) types.Token {
	return types.Token{
		Location: types.SingleCharSpan(l.pos),
		Kind:     t,
	}
}

func delimiter(r rune) bool {
	return r == '(' || r == ')' || r == '"' || unicode.IsSpace(r)
}

// lexAtom reads everything up to the next delimiter. The first rune has
// already been consumed.
func (l *Lexer) lexAtom(first rune) (types.Span, string) {
	from := l.pos
	to := l.pos
	var sb strings.Builder
	sb.WriteRune(first)

	for {
		saved := l.pos
		r, err := l.read()
		if err != nil {
			if err == io.EOF {
				return types.Span{From: from, To: to}, sb.String()
			}
			panic(err)
		}

		if delimiter(r) {
			l.unread(saved)
			return types.Span{From: from, To: to}, sb.String()
		}

		sb.WriteRune(r)
		to = l.pos
	}
}

// lexString reads a double-quoted literal and returns it with its quotes.
// The opening quote has already been consumed.
func (l *Lexer) lexString() (types.Span, string) {
	from := l.pos
	var sb strings.Builder
	sb.WriteByte('"')

	escaped := false
	for {
		r, err := l.read()
		if err != nil {
			if err == io.EOF {
				panic(errors.UnterminatedString{Location: types.Span{From: from, To: l.pos}})
			}
			panic(err)
		}

		sb.WriteRune(r)
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			return types.Span{From: from, To: l.pos}, sb.String()
		}
	}
}

func (l *Lexer) skipLineComment() {
	for {
		r, err := l.read()
		if err != nil {
			if err == io.EOF {
				return
			}
			panic(err)
		}
		if r == '\n' {
			return
		}
	}
}

func (l *Lexer) skipBlockComment() {
	from := l.pos
	star := false
	for {
		r, err := l.read()
		if err != nil {
			if err == io.EOF {
				panic(errors.UnterminatedComment{Location: types.Span{From: from, To: l.pos}})
			}
			panic(err)
		}
		if star && r == '/' {
			return
		}
		star = r == '*'
	}
}

func (l *Lexer) Peek() (types.Token, string) {
	if l.peeked != nil {
		return *l.peeked, l.peekedString
	}

	tok, str := l.Lex()
	l.peeked = &tok
	l.peekedString = str

	return tok, str
}

func (l *Lexer) PeekIs(k ...types.TokenKind) bool {
	token, _ := l.Peek()
	for _, kind := range k {
		if token.Kind == kind {
			return true
		}
	}

	return false
}

func (l *Lexer) LexExpecting(k ...types.TokenKind) (types.Token, string) {
	token, lit := l.Lex()
	for _, kind := range k {
		if token.Kind == kind {
			return token, lit
		}
	}

	panic(errors.ExpectedOneOfKindGotKind{
		Expected: k,
		Got:      token.Kind,
		Location: token.Location,
	})
}

func (l *Lexer) Lex() (types.Token, string) {
	if l.peeked != nil {
		defer func() { l.peeked = nil }()
		return *l.peeked, l.peekedString
	}

	for {
		r, err := l.read()
		if err != nil {
			if err == io.EOF {
				return l.kinded(types.EOF), ""
			}
			panic(err)
		}

		switch {
		case r == '(':
			return l.kinded(types.LPAREN), "("
		case r == ')':
			return l.kinded(types.RPAREN), ")"
		case r == '"':
			span, lit := l.lexString()
			return types.Token{Kind: types.STRING, Location: span}, lit
		case unicode.IsSpace(r):
			continue
		case r == '/':
			byt, err := l.reader.Peek(1)
			if err != nil && err != io.EOF {
				panic(err)
			}
			if len(byt) > 0 && byt[0] == '/' {
				l.skipLineComment()
				continue
			}
			if len(byt) > 0 && byt[0] == '*' {
				l.read()
				l.skipBlockComment()
				continue
			}
		}

		span, lit := l.lexAtom(r)
		if isNumber(lit) {
			return types.Token{Kind: types.NUMBER, Location: span}, lit
		}
		return types.Token{Kind: types.SYMBOL, Location: span}, lit
	}
}

// isNumber accepts -?digits(.digits)?
func isNumber(lit string) bool {
	s := strings.TrimPrefix(lit, "-")
	if s == "" || !unicode.IsDigit(rune(s[0])) {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	_, err := strconv.ParseFloat(lit, 64)
	return err == nil
}

type testToken struct {
	t types.Token
	s string
}

func (l *Lexer) lexToEOF() (ret []testToken) {
	t, s := l.Lex()
	for t.Kind != types.EOF {
		ret = append(ret, testToken{
			t: t,
			s: s,
		})
		t, s = l.Lex()
	}
	return
}
