package interp

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pontaoski/evampp/errors"
	"github.com/pontaoski/evampp/jsast"
	"github.com/pontaoski/evampp/parser"
	"github.com/pontaoski/evampp/scheduler"
	"github.com/pontaoski/evampp/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func translate(t *testing.T, src string) *jsast.Program {
	t.Helper()

	forms, err := parser.ParseString(src)
	require.NoError(t, err)
	prog, err := translator.New().TranslateProgram(forms)
	require.NoError(t, err)
	return prog
}

func run(t *testing.T, src string) (string, *scheduler.FakeClock, error) {
	t.Helper()

	var out bytes.Buffer
	clock := scheduler.NewFakeClock(epoch)
	err := New(&out, scheduler.New(clock)).Run(context.Background(), translate(t, src))
	return out.String(), clock, err
}

func requireOutput(t *testing.T, src, want string) {
	t.Helper()

	got, _, err := run(t, src)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
}

func TestRunPrint(t *testing.T) {
	requireOutput(t, `
(print "hello" 1 2.5)
(print (+ 1 2) (- 10 4) (* 3 4) (/ 7 2))
(print (+ "a" 1) (+ 1 "b"))
(print "tab\there")`,
		"hello 1 2.5\n3 6 12 3.5\na1 1b\ntab\there\n")
}

func TestRunEquality(t *testing.T) {
	requireOutput(t, `
(print (== 1 1) (== 1 "1") (!= 1 "1"))
(print (< 1 2) (>= 2 3) (< "a" "b"))
(print (not 0) (not "x") (- 5))`,
		"true false true\ntrue false true\ntrue false -5\n")
}

func TestRunLogicalShortCircuit(t *testing.T) {
	requireOutput(t, `
(print (or 0 "x") (and 0 (missing)) (and 1 2))`,
		"x 0 2\n")
}

func TestRunVariables(t *testing.T) {
	requireOutput(t, `
(var user-name "ann")
(print user-name)
(set user-name "bob")
(print user-name)
(var i 1)
(print (i ++))
(print i)
(print (++ i))
(print (-- i))`,
		"ann\nbob\n1\n2\n3\n2\n")
}

func TestRunBlockScope(t *testing.T) {
	requireOutput(t, `
(var x 1)
(begin
  (var x 2)
  (print x))
(print x)`,
		"2\n1\n")
}

func TestRunFunctions(t *testing.T) {
	requireOutput(t, `
(def square (x) (* x x))
(def fact (n)
  (if (== n 0)
    (return 1)
    (return (* n (fact (- n 1))))))
(print (square 4) (fact 5))`,
		"16 120\n")
}

func TestRunHoisting(t *testing.T) {
	requireOutput(t, `
(print (later 2))
(def later (x) (+ x 1))`,
		"3\n")
}

func TestRunClosures(t *testing.T) {
	requireOutput(t, `
(def counter ()
  (begin
    (var n 0)
    (def next ()
      (begin
        (set n (+ n 1))
        n))
    next))
(var c (counter))
(c)
(print (c))`,
		"2\n")
}

func TestRunWhile(t *testing.T) {
	requireOutput(t, `
(var i 0)
(var sum 0)
(while (< i 5)
  (begin
    (set sum (+ sum i))
    (++ i)))
(print sum)`,
		"10\n")
}

func TestRunCollections(t *testing.T) {
	requireOutput(t, `
(var xs (list 1 "two" 3))
(set (idx xs 0) 10)
(print xs (idx xs 1) (idx xs 9) (prop xs length))
(var y 2)
(var p (rec (x 1) y))
(set (prop p z) (list))
(print p (prop p x))
(print (rec))`,
		"[ 10, 'two', 3 ] two undefined 3\n{ x: 1, y: 2, z: [] } 1\n{}\n")
}

func TestRunProcessesInterleave(t *testing.T) {
	requireOutput(t, `
(def handle (id)
  (begin
    (print id 1)
    (print id 2)
    (print id 3)
    (print id 4)))
(spawn handle "x")
(spawn handle "y")
(print "spawned")`,
		"spawned\nx 1\ny 1\nx 2\ny 2\nx 3\nx 4\ny 3\ny 4\n")
}

func TestRunLongBodiesKeepYielding(t *testing.T) {
	requireOutput(t, `
(def handle (id)
  (begin
    (print id 1)
    (print id 2)
    (print id 3)
    (print id 4)
    (print id 5)
    (print id 6)))
(spawn handle "x")
(spawn handle "y")`,
		"x 1\ny 1\nx 2\ny 2\nx 3\ny 3\nx 4\ny 4\nx 5\nx 6\ny 5\ny 6\n")
}

func TestRunSleepOrdersByWakeTime(t *testing.T) {
	out, clock, err := run(t, `
(def worker (name ms)
  (begin
    (sleep ms)
    (print name "done")))
(spawn worker "slow" 30)
(spawn worker "fast" 10)`)
	require.NoError(t, err)

	assert.Equal(t, "fast done\nslow done\n", out)
	assert.Equal(t, 30*time.Millisecond, clock.Slept())
}

func TestRunSleepInsideLoop(t *testing.T) {
	out, clock, err := run(t, `
(def ticker (name n ms)
  (begin
    (var i 0)
    (while (< i n)
      (begin
        (print name i)
        (sleep ms)
        (++ i)))))
(spawn ticker "a" 3 10)
(spawn ticker "b" 2 15)`)
	require.NoError(t, err)

	want := "a 0\nb 0\na 1\nb 1\na 2\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
	assert.Equal(t, 30*time.Millisecond, clock.Slept())
}

func TestRunSpawnFromProcess(t *testing.T) {
	requireOutput(t, `
(def child (n)
  (begin
    (print "child" n)
    (print "child done" n)))
(def parent ()
  (begin
    (spawn child 1)
    (print "parent")
    (print "parent done")))
(spawn parent)`,
		"child 1\nparent\nparent done\nchild done 1\n")
}

func TestRunRuntimeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		msg  string
	}{
		{"undefined", `(print nope)`, "nope is not defined"},
		{"undeclared set", `(set nope 1)`, "assignment to undeclared variable nope"},
		{"not a function", `(var x 1) (x)`, "1 is not a function"},
		{"sleep at top level", `(sleep 10)`, "sleep can only be called as a statement of a process body"},
		{"undefined property", `(var r (rec)) (print (prop (prop r a) b))`, "cannot read property b of undefined"},
		{"return at top level", `(return 1)`, "return outside of a function"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := run(t, c.src)
			require.Error(t, err)

			var re errors.RuntimeError
			require.True(t, stderrors.As(err, &re), "got %v", err)
			assert.Equal(t, c.msg, re.Msg)
		})
	}
}

func TestRunNestedSleepFails(t *testing.T) {
	_, _, err := run(t, `
(def f ()
  (begin
    (print (sleep 1))
    (print "after")))
(spawn f)`)
	require.Error(t, err)

	var pe scheduler.ProcessError
	require.True(t, stderrors.As(err, &pe))
	assert.Equal(t, "#1 (_f)", pe.Process.String())
	assert.Contains(t, err.Error(), "sleep can only be called as a statement of a process body")
}

func TestRunCallingProcessBodyFails(t *testing.T) {
	prog := &jsast.Program{Body: &jsast.Block{Statements: []jsast.Node{
		&jsast.ResumableFunctionDecl{
			Name: &jsast.Identifier{Name: "_f"},
			Body: &jsast.Block{},
		},
		&jsast.ExpressionStatement{Expression: &jsast.Call{Callee: &jsast.Identifier{Name: "_f"}}},
	}}}

	err := New(&bytes.Buffer{}, scheduler.New(scheduler.NewFakeClock(epoch))).Run(context.Background(), prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "_f is a process body and can only be spawned")
}

func TestRunDeepRecursion(t *testing.T) {
	_, _, err := run(t, `
(def loop-forever (n) (return (loop-forever n)))
(loop-forever 1)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum call depth exceeded in loopForever")
}

func TestRunCancelled(t *testing.T) {
	prog := translate(t, `(while 1 (var x 1))`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(&bytes.Buffer{}, nil).Run(ctx, prog)
	assert.True(t, stderrors.Is(err, context.Canceled))
}

func TestDecodeString(t *testing.T) {
	assert.Equal(t, "a\"b", decodeString(`a\"b`))
	assert.Equal(t, `bad \q`, decodeString(`bad \q`))
}

func TestDisplay(t *testing.T) {
	rec := NewRecord()
	rec.Set("b", 1.0)
	rec.Set("a", "x")
	rec.Set("b", 2.0)

	assert.Equal(t, "{ b: 2, a: 'x' }", display(rec, false))
	assert.Equal(t, []string{"b", "a"}, rec.Keys())
	assert.Equal(t, "undefined", display(nil, false))
	assert.Equal(t, "NaN", display(toNumber("abc"), false))
	assert.Equal(t, "[Function: print]", display(addPrint(), false))
}
