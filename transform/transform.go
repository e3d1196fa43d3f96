// Package transform turns plain function declarations into resumable
// process bodies.
package transform

import (
	"github.com/pontaoski/evampp/jsast"
)

// ProcessPrefix marks the name of a process body derived from a function.
const ProcessPrefix = "_"

// ProcessName is the name of the resumable counterpart of fn.
func ProcessName(fn string) string {
	return ProcessPrefix + fn
}

// ToResumable builds the resumable counterpart of fn. fn is not modified;
// the new declaration shares its parameters and statement nodes.
//
// A SuspensionPoint is inserted at index 1, 3, 5, ... of the growing
// sequence, leaving the last two statements in one segment unless they are
// the whole body. [A B] becomes [A yield B], [A B C D] becomes
// [A yield B yield C D], and bodies of zero or one statement get none. No
// segment holds more than two statements.
func ToResumable(fn *jsast.FunctionDecl) *jsast.ResumableFunctionDecl {
	n := len(fn.Body.Statements)

	body := &jsast.Block{Statements: make([]jsast.Node, 0, 2*n)}
	body.Statements = append(body.Statements, fn.Body.Statements...)

	for i := 1; i < max(n, len(body.Statements)-1); i += 2 {
		body.Insert(i, &jsast.SuspensionPoint{})
	}

	return &jsast.ResumableFunctionDecl{
		Name:   &jsast.Identifier{Name: ProcessName(fn.Name.Name)},
		Params: fn.Params,
		Body:   body,
	}
}
