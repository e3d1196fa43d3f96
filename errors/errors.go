package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/alecthomas/repr"
	"github.com/pontaoski/evampp/sexp"
	"github.com/pontaoski/evampp/types"
)

type ExpectedOneOfKindGotKind struct {
	Expected []types.TokenKind
	Got      types.TokenKind
	Location types.Span
}

func (e ExpectedOneOfKindGotKind) Error() string {
	return fmt.Sprintf("got a %s, expected one of %s. %s", e.Got, e.Expected, e.Location)
}

type UnterminatedString struct {
	Location types.Span
}

func (e UnterminatedString) Error() string {
	return fmt.Sprintf("unterminated string literal. %s", e.Location)
}

type UnterminatedComment struct {
	Location types.Span
}

func (e UnterminatedComment) Error() string {
	return fmt.Sprintf("unterminated block comment. %s", e.Location)
}

// FormError is implemented by every error caused by a user form that no
// translation rule accepts.
type FormError interface {
	error
	Offending() sexp.Form
}

type UnsupportedForm struct {
	Form   sexp.Form
	Reason string
}

func (e UnsupportedForm) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unsupported form %s", sexp.Format(e.Form))
	}
	return fmt.Sprintf("unsupported form %s: %s", sexp.Format(e.Form), e.Reason)
}

func (e UnsupportedForm) Offending() sexp.Form { return e.Form }

type UnknownLogicalOperator struct {
	Operator string
	Form     sexp.Form
}

func (e UnknownLogicalOperator) Error() string {
	return fmt.Sprintf("unknown logical operator %s in %s", e.Operator, sexp.Format(e.Form))
}

func (e UnknownLogicalOperator) Offending() sexp.Form { return e.Form }

type UndefinedFunction struct {
	Name string
	Form sexp.Form
}

func (e UndefinedFunction) Error() string {
	return fmt.Sprintf("cannot spawn %s: no function with that name is defined. %s", e.Name, sexp.Format(e.Form))
}

func (e UndefinedFunction) Offending() sexp.Form { return e.Form }

type DuplicateField struct {
	Name string
	Form sexp.Form
}

func (e DuplicateField) Error() string {
	return fmt.Sprintf("field %s specified more than once in %s", e.Name, sexp.Format(e.Form))
}

func (e DuplicateField) Offending() sexp.Form { return e.Form }

// InternalError signals a translator bug, never bad input.
type InternalError struct {
	Msg  string
	Node interface{}
}

func (e InternalError) Error() string {
	if e.Node == nil {
		return "internal error: " + e.Msg
	}
	return fmt.Sprintf("internal error: %s: %s", e.Msg, repr.String(e.Node))
}

// IsInternal reports whether err (or anything it wraps) is an InternalError.
func IsInternal(err error) bool {
	var ie InternalError
	return stderrors.As(err, &ie)
}

// OffendingForm returns the form carried by a FormError anywhere in err's chain.
func OffendingForm(err error) (sexp.Form, bool) {
	var fe FormError
	if stderrors.As(err, &fe) {
		return fe.Offending(), true
	}
	return nil, false
}

// RuntimeError is a failure while running a translated program.
type RuntimeError struct {
	Msg string
}

func (e RuntimeError) Error() string {
	return "runtime error: " + e.Msg
}

func Runtimef(format string, args ...interface{}) RuntimeError {
	return RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

type InvalidConfig struct {
	Path   string
	Field  string
	Reason string
}

func (e InvalidConfig) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Path, e.Field, e.Reason)
}
