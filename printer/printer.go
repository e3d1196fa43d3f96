// Package printer renders a jsast tree as JavaScript source.
package printer

import (
	"fmt"
	"math"
	"strings"

	"github.com/pontaoski/evampp/jsast"
	"github.com/pontaoski/evampp/sexp"
)

// RuntimeModule is the file generated programs load the scheduler from.
const RuntimeModule = "evampp-runtime"

const prologue = "// Prologue:\nconst { print, spawn, sleep, scheduler } = require('./" + RuntimeModule + "');\n"

const epilogue = "// Epilogue:\nscheduler.drain();\n"

type Printer struct {
	indent    int
	current   int
	inProcess bool
}

func New(indent int) *Printer {
	if indent <= 0 {
		indent = 2
	}
	return &Printer{indent: indent}
}

// Program renders a whole program together with the runtime prologue and,
// when processes are spawned, the final scheduling pass.
func (p *Printer) Program(prog *jsast.Program) string {
	var sb strings.Builder
	sb.WriteString(prologue)
	sb.WriteString("\n")

	for _, stmt := range prog.Body.Statements {
		sb.WriteString(p.gen(stmt))
		sb.WriteString("\n")
	}

	if prog.Scheduled {
		sb.WriteString("\n")
		sb.WriteString(epilogue)
	}
	return sb.String()
}

// Print renders a single node without prologue.
func (p *Printer) Print(n jsast.Node) string {
	return p.gen(n)
}

func (p *Printer) ind() string {
	return strings.Repeat(" ", p.current)
}

func (p *Printer) gen(n jsast.Node) string {
	switch v := n.(type) {
	case *jsast.NumericLiteral:
		return sexp.FormatNumber(v.Value)
	case *jsast.StringLiteral:
		return stringLiteral(v.Value)
	case *jsast.Identifier:
		return v.Name
	case *jsast.VariableDeclaration:
		return fmt.Sprintf("let %s = %s;", v.Name.Name, p.gen(v.Init))
	case *jsast.Assignment:
		return fmt.Sprintf("%s = %s", p.gen(v.Target), p.gen(v.Value))
	case *jsast.UnaryOp:
		return v.Op + p.operand(v.Operand)
	case *jsast.BinaryOp:
		return fmt.Sprintf("%s %s %s", p.operand(v.Left), v.Op, p.operand(v.Right))
	case *jsast.LogicalOp:
		return fmt.Sprintf("%s %s %s", p.operand(v.Left), v.Op, p.operand(v.Right))
	case *jsast.PrefixUpdate:
		return v.Op + p.operand(v.Operand)
	case *jsast.PostfixUpdate:
		return p.operand(v.Operand) + v.Op
	case *jsast.Call:
		return p.operand(v.Callee) + "(" + p.list(v.Args) + ")"
	case *jsast.Block:
		return p.block(v)
	case *jsast.If:
		out := fmt.Sprintf("if (%s) %s", p.gen(v.Test), p.gen(v.Consequent))
		if v.Alternate != nil {
			out += " else " + p.gen(v.Alternate)
		}
		return out
	case *jsast.While:
		return fmt.Sprintf("while (%s) %s", p.gen(v.Test), p.gen(v.Body))
	case *jsast.FunctionDecl:
		return p.function("function", v.Name, v.Params, v.Body, false)
	case *jsast.ResumableFunctionDecl:
		return p.function("async function*", v.Name, v.Params, v.Body, true)
	case *jsast.Return:
		if v.Value == nil {
			return "return;"
		}
		return fmt.Sprintf("return %s;", p.gen(v.Value))
	case *jsast.SuspensionPoint:
		return "yield;"
	case *jsast.ListLiteral:
		return "[" + p.list(v.Elements) + "]"
	case *jsast.RecordLiteral:
		return p.record(v)
	case *jsast.IndexAccess:
		return fmt.Sprintf("%s[%s]", p.operand(v.Object), p.gen(v.Index))
	case *jsast.FieldAccess:
		return fmt.Sprintf("%s.%s", p.operand(v.Object), v.Field)
	case *jsast.ExpressionStatement:
		return p.expressionStatement(v)
	case *jsast.Program:
		return p.Program(v)
	}

	panic(fmt.Sprintf("printer: unhandled node %T", n))
}

func (p *Printer) expressionStatement(v *jsast.ExpressionStatement) string {
	switch e := v.Expression.(type) {
	case *jsast.SuspensionPoint:
		return "yield;"
	case *jsast.RecordLiteral:
		// a leading brace would open a block
		return "(" + p.gen(e) + ");"
	case *jsast.Call:
		if id, ok := e.Callee.(*jsast.Identifier); ok && id.Name == "sleep" && p.inProcess {
			return "await " + p.gen(e) + ";"
		}
	}
	return p.gen(v.Expression) + ";"
}

// operand parenthesizes compound expressions used inside another expression.
func (p *Printer) operand(n jsast.Node) string {
	switch v := n.(type) {
	case *jsast.NumericLiteral:
		// -(-3) must not print as --3
		if math.Signbit(v.Value) {
			return "(" + p.gen(n) + ")"
		}
	case *jsast.BinaryOp, *jsast.LogicalOp, *jsast.Assignment, *jsast.UnaryOp,
		*jsast.PrefixUpdate, *jsast.PostfixUpdate, *jsast.RecordLiteral:
		return "(" + p.gen(n) + ")"
	}
	return p.gen(n)
}

func (p *Printer) list(nodes []jsast.Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, p.gen(n))
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) block(b *jsast.Block) string {
	if len(b.Statements) == 0 {
		return "{}"
	}

	p.current += p.indent
	lines := make([]string, 0, len(b.Statements))
	for _, stmt := range b.Statements {
		lines = append(lines, p.ind()+p.gen(stmt))
	}
	p.current -= p.indent

	return "{\n" + strings.Join(lines, "\n") + "\n" + p.ind() + "}"
}

func (p *Printer) function(keyword string, name *jsast.Identifier, params []*jsast.Identifier, body *jsast.Block, process bool) string {
	names := make([]string, 0, len(params))
	for _, param := range params {
		names = append(names, param.Name)
	}

	saved := p.inProcess
	p.inProcess = process
	out := fmt.Sprintf("%s %s(%s) %s", keyword, name.Name, strings.Join(names, ", "), p.block(body))
	p.inProcess = saved

	return out
}

func (p *Printer) record(r *jsast.RecordLiteral) string {
	if len(r.Fields) == 0 {
		return "{}"
	}

	parts := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		if id, ok := f.Value.(*jsast.Identifier); ok && id.Name == f.Key {
			parts = append(parts, f.Key)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Key, p.gen(f.Value)))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// stringLiteral keeps the source text of a string verbatim, only escaping
// line breaks, which JavaScript does not allow inside quotes.
func stringLiteral(s string) string {
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}
