package errors

import (
	"fmt"
	"testing"

	"github.com/pontaoski/evampp/sexp"
	"github.com/stretchr/testify/require"
	"github.com/ztrue/tracerr"
)

func TestUnsupportedFormMessage(t *testing.T) {
	err := UnsupportedForm{
		Form:   sexp.List{sexp.Symbol("var"), sexp.Symbol("x")},
		Reason: "var expects a name and an initializer",
	}
	require.Equal(t, "unsupported form (var x): var expects a name and an initializer", err.Error())
}

func TestOffendingFormThroughWrapping(t *testing.T) {
	form := sexp.List{sexp.Symbol("xor"), sexp.Number(1), sexp.Number(2)}
	err := tracerr.Wrap(fmt.Errorf("compiling: %w", UnknownLogicalOperator{Operator: "xor", Form: form}))

	got, ok := OffendingForm(err)
	require.True(t, ok)
	require.Equal(t, form, got)
	require.False(t, IsInternal(err))
}

func TestInternalErrorIsDistinct(t *testing.T) {
	err := tracerr.Wrap(InternalError{Msg: "cannot turn node into a statement"})

	require.True(t, IsInternal(err))
	_, ok := OffendingForm(err)
	require.False(t, ok)
	require.Contains(t, err.Error(), "internal error")
}
