package printer

import (
	"testing"

	"github.com/pontaoski/evampp/jsast"
	"github.com/pontaoski/evampp/parser"
	"github.com/pontaoski/evampp/translator"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) *jsast.Program {
	t.Helper()

	forms, err := parser.ParseString(src)
	require.NoError(t, err)

	prog, err := translator.New().TranslateProgram(forms)
	require.NoError(t, err)
	return prog
}

func id(name string) *jsast.Identifier {
	return &jsast.Identifier{Name: name}
}

func num(v float64) *jsast.NumericLiteral {
	return &jsast.NumericLiteral{Value: v}
}

func TestPrintExpressions(t *testing.T) {
	cases := []struct {
		name string
		node jsast.Node
		want string
	}{
		{"number", num(42), "42"},
		{"fraction", num(1.5), "1.5"},
		{"string", &jsast.StringLiteral{Value: `a \"b\"`}, `"a \"b\""`},
		{"newline", &jsast.StringLiteral{Value: "a\nb"}, `"a\nb"`},
		{"binary", &jsast.BinaryOp{Op: "+", Left: num(1), Right: id("x")}, "1 + x"},
		{
			"nested binary",
			&jsast.BinaryOp{Op: "*", Left: &jsast.BinaryOp{Op: "+", Left: num(1), Right: num(2)}, Right: num(3)},
			"(1 + 2) * 3",
		},
		{"unary", &jsast.UnaryOp{Op: "!", Operand: id("ok")}, "!ok"},
		{
			"unary compound",
			&jsast.UnaryOp{Op: "-", Operand: &jsast.BinaryOp{Op: "-", Left: id("a"), Right: id("b")}},
			"-(a - b)",
		},
		{"negated negative", &jsast.UnaryOp{Op: "-", Operand: num(-3)}, "-(-3)"},
		{"negative operand", &jsast.BinaryOp{Op: "-", Left: id("a"), Right: num(-2.5)}, "a - (-2.5)"},
		{"negative callee object", &jsast.FieldAccess{Object: num(-1), Field: "x"}, "(-1).x"},
		{"prefix", &jsast.PrefixUpdate{Op: "++", Operand: id("i")}, "++i"},
		{"postfix", &jsast.PostfixUpdate{Op: "--", Operand: id("i")}, "i--"},
		{"logical", &jsast.LogicalOp{Op: "&&", Left: id("a"), Right: id("b")}, "a && b"},
		{"call", &jsast.Call{Callee: id("f"), Args: []jsast.Node{num(1), id("y")}}, "f(1, y)"},
		{"call no args", &jsast.Call{Callee: id("f")}, "f()"},
		{"list", &jsast.ListLiteral{Elements: []jsast.Node{num(1), num(2)}}, "[1, 2]"},
		{"empty record", &jsast.RecordLiteral{}, "{}"},
		{
			"record",
			&jsast.RecordLiteral{Fields: []jsast.RecordField{{Key: "x", Value: num(1)}, {Key: "y", Value: id("y")}}},
			"{ x: 1, y }",
		},
		{"index", &jsast.IndexAccess{Object: id("xs"), Index: num(0)}, "xs[0]"},
		{"field", &jsast.FieldAccess{Object: id("p"), Field: "name"}, "p.name"},
		{"assign", &jsast.Assignment{Target: id("x"), Value: num(2)}, "x = 2"},
		{"return", &jsast.Return{Value: id("x")}, "return x;"},
		{"bare return", &jsast.Return{}, "return;"},
		{"yield", &jsast.SuspensionPoint{}, "yield;"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, New(2).Print(c.node))
		})
	}
}

func TestPrintRecordStatement(t *testing.T) {
	stmt := &jsast.ExpressionStatement{Expression: &jsast.RecordLiteral{}}
	require.Equal(t, "({});", New(2).Print(stmt))
}

func TestPrintIfElse(t *testing.T) {
	prog := compile(t, `(begin (if (== x 1) (print "one") (print "other")))`)

	want := `if (x === 1) {
  print("one");
} else {
  print("other");
}`
	require.Equal(t, want, New(2).Print(prog.Body.Statements[0]))
}

func TestPrintIndentWidth(t *testing.T) {
	prog := compile(t, `(begin (while (< i 3) (begin (print i) (++ i))))`)

	want := `while (i < 3) {
    print(i);
    ++i;
}`
	require.Equal(t, want, New(4).Print(prog.Body.Statements[0]))
}

func TestPrintDefaultIndent(t *testing.T) {
	require.Equal(t, 2, New(0).indent)
}

func TestPrintProgramWithProcesses(t *testing.T) {
	prog := compile(t, `
(begin
  (def handle (id)
    (begin
      (print id 1)
      (print id 2)
      (print id 3)))
  (spawn handle "x"))`)

	want := `// Prologue:
const { print, spawn, sleep, scheduler } = require('./evampp-runtime');

function handle(id) {
  print(id, 1);
  print(id, 2);
  return print(id, 3);
}
async function* _handle(id) {
  print(id, 1);
  yield;
  print(id, 2);
  return print(id, 3);
}
spawn(_handle, "x");

// Epilogue:
scheduler.drain();
`
	require.Equal(t, want, New(2).Program(prog))
}

func TestPrintProgramWithoutProcesses(t *testing.T) {
	prog := compile(t, `(begin (var x 10) (print x))`)

	want := `// Prologue:
const { print, spawn, sleep, scheduler } = require('./evampp-runtime');

let x = 10;
print(x);
`
	require.Equal(t, want, New(2).Program(prog))
}

func TestPrintSleepInsideProcess(t *testing.T) {
	prog := compile(t, `
(begin
  (def tick (n)
    (begin
      (sleep n)
      (print n)))
  (spawn tick 5)
  (sleep 1))`)

	out := New(2).Program(prog)
	require.Contains(t, out, "function tick(n) {\n  sleep(n);\n  return print(n);\n}")
	require.Contains(t, out, "async function* _tick(n) {\n  await sleep(n);\n  yield;\n  return print(n);\n}")
	require.Contains(t, out, "\nsleep(1);\n")
}

func TestPrintUnhandledNode(t *testing.T) {
	require.Panics(t, func() {
		New(2).Print(nil)
	})
}
