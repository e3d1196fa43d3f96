package sexp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	f := List{Symbol("def"), Symbol("square"), List{Symbol("x")}, List{Symbol("*"), Symbol("x"), Number(2.5)}}
	require.Equal(t, "(def square (x) (* x 2.5))", Format(f))
	require.Equal(t, `(print "hi")`, Format(List{Symbol("print"), String(`"hi"`)}))
	require.Equal(t, "()", Format(List{}))
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "42", FormatNumber(42))
	require.Equal(t, "-3.25", FormatNumber(-3.25))
}

func TestStringUnquote(t *testing.T) {
	require.Equal(t, `a "b" c`, String(`"a "b" c"`).Unquote())
	require.Equal(t, "", String(`""`).Unquote())
	require.False(t, String(`"`).Quoted())
}

func TestHead(t *testing.T) {
	h, ok := Head(List{Symbol("begin"), Number(1)})
	require.True(t, ok)
	require.Equal(t, Symbol("begin"), h)

	_, ok = Head(List{Number(1)})
	require.False(t, ok)

	_, ok = Head(List{})
	require.False(t, ok)
}
