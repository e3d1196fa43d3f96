// Package sexp holds the symbolic forms produced by the parser and consumed
// by the translator.
package sexp

//go:generate sh -c "cd ../tool && go run . ../sexp/forms.adt ../sexp/forms_gen.go sexp"

import (
	"strconv"
	"strings"
)

// Format renders a form back to Eva source text.
func Format(f Form) string {
	var sb strings.Builder
	write(&sb, f)
	return sb.String()
}

func write(sb *strings.Builder, f Form) {
	switch v := f.(type) {
	case Number:
		sb.WriteString(FormatNumber(float64(v)))
	case String:
		sb.WriteString(string(v))
	case Symbol:
		sb.WriteString(string(v))
	case List:
		sb.WriteByte('(')
		for i, el := range v {
			if i > 0 {
				sb.WriteByte(' ')
			}
			write(sb, el)
		}
		sb.WriteByte(')')
	case nil:
		sb.WriteString("<nil>")
	default:
		panic("unhandled")
	}
}

// FormatNumber prints n the shortest way that reads back as the same value.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Head returns the leading symbol of a list, if any.
func Head(l List) (Symbol, bool) {
	if len(l) == 0 {
		return "", false
	}
	s, ok := l[0].(Symbol)
	return s, ok
}

// IsSymbol reports whether f is the symbol name.
func IsSymbol(f Form, name string) bool {
	s, ok := f.(Symbol)
	return ok && string(s) == name
}

// Quoted reports whether s is a double-quoted string literal.
func (s String) Quoted() bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// Unquote strips exactly the outer quotes.
func (s String) Unquote() string {
	if !s.Quoted() {
		return string(s)
	}
	return string(s[1 : len(s)-1])
}
