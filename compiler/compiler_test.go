package compiler

import (
	stderrors "errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pontaoski/evampp/errors"
	"github.com/pontaoski/evampp/sexp"
	"github.com/pontaoski/evampp/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handleSource = `
// two processes taking turns
(def handle (id)
  (begin
    (print id 1)
    (print id 2)))

(handle "x")
(spawn handle "x")
(spawn handle "y")
`

const handleTarget = `// Prologue:
const { print, spawn, sleep, scheduler } = require('./evampp-runtime');

function handle(id) {
  print(id, 1);
  return print(id, 2);
}
async function* _handle(id) {
  print(id, 1);
  yield;
  return print(id, 2);
}
handle("x");
spawn(_handle, "x");
spawn(_handle, "y");

// Epilogue:
scheduler.drain();
`

func TestCompile(t *testing.T) {
	res, err := New(Options{Indent: 2}).Compile(handleSource)
	require.NoError(t, err)

	if diff := cmp.Diff(handleTarget, res.Target); diff != "" {
		t.Errorf("target (-want +got):\n%s", diff)
	}
	assert.True(t, res.AST.Scheduled)
	assert.Len(t, res.Forms, 5)
	assert.Equal(t, sexp.Symbol("begin"), res.Forms[0])

	want := []translator.FunctionInfo{
		{Name: "handle", Params: []string{"id"}, Process: "_handle"},
		{Name: "_handle", Params: []string{"id"}, Resumable: true},
	}
	if diff := cmp.Diff(want, res.Functions); diff != "" {
		t.Errorf("functions (-want +got):\n%s", diff)
	}
}

func TestCompileIsolated(t *testing.T) {
	c := New(Options{})

	_, err := c.Compile(`(def f () 1)`)
	require.NoError(t, err)

	// f belongs to the previous compile only
	_, err = c.Compile(`(spawn f)`)
	var uf errors.UndefinedFunction
	require.True(t, stderrors.As(err, &uf), "got %v", err)
	assert.Equal(t, "f", uf.Name)
}

func TestCompileErrors(t *testing.T) {
	c := New(Options{})

	_, err := c.Compile(`(print "unterminated`)
	var us errors.UnterminatedString
	assert.True(t, stderrors.As(err, &us), "got %v", err)

	_, err = c.Compile(`(xor 1 2)`)
	var ul errors.UnknownLogicalOperator
	assert.True(t, stderrors.As(err, &ul), "got %v", err)

	_, err = c.Compile(`(var 1 2)`)
	form, ok := errors.OffendingForm(err)
	require.True(t, ok)
	assert.Equal(t, "(var 1 2)", sexp.Format(form))
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.eva")
	require.NoError(t, ioutil.WriteFile(src, []byte(handleSource), 0644))

	res, err := New(Options{Indent: 2}).CompileFile(src)
	require.NoError(t, err)
	assert.Equal(t, handleTarget, res.Target)

	_, err = New(Options{}).CompileFile(filepath.Join(dir, "missing.eva"))
	assert.Error(t, err)
}

func TestWriteOutput(t *testing.T) {
	res, err := New(Options{Indent: 2}).Compile(handleSource)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out", "main.js")
	require.NoError(t, WriteOutput(out, res))

	target, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, handleTarget, string(target))

	rt, err := ioutil.ReadFile(filepath.Join(filepath.Dir(out), "evampp-runtime.js"))
	require.NoError(t, err)
	assert.Equal(t, Runtime(), rt)
	assert.Contains(t, string(rt), "async drain()")
}
