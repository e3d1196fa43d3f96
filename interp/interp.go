// Package interp runs translated programs directly, driving spawned
// process bodies on the cooperative scheduler.
package interp

import (
	"context"
	"io"
	"math"
	"os"
	"runtime"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/evampp/errors"
	"github.com/pontaoski/evampp/jsast"
	"github.com/pontaoski/evampp/scheduler"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/evampp", "interp")

const maxDepth = 10000

type Interpreter struct {
	out     io.Writer
	sched   *scheduler.Scheduler
	globals *Env
	sleepFn *Builtin
	ctx     context.Context
	depth   int
}

// New creates an interpreter printing to out (stdout when nil) and
// spawning onto sched (a wall clock scheduler when nil).
func New(out io.Writer, sched *scheduler.Scheduler) *Interpreter {
	if out == nil {
		out = os.Stdout
	}
	if sched == nil {
		sched = scheduler.New(nil)
	}

	in := &Interpreter{
		out:     out,
		sched:   sched,
		globals: NewEnv(nil),
		ctx:     context.Background(),
	}
	for name, b := range builtins() {
		in.globals.Define(name, b)
	}
	in.sleepFn = in.mustBuiltin(sleepName)

	return in
}

func (in *Interpreter) mustBuiltin(name string) *Builtin {
	v, _ := in.globals.Lookup(name)
	b, ok := v.(*Builtin)
	if !ok {
		panic(errors.InternalError{Msg: "missing builtin " + name})
	}
	return b
}

func (in *Interpreter) Globals() *Env {
	return in.globals
}

func (in *Interpreter) Scheduler() *scheduler.Scheduler {
	return in.sched
}

// Run executes the top level of prog, then drains the scheduler so every
// spawned process runs to completion.
func (in *Interpreter) Run(ctx context.Context, prog *jsast.Program) error {
	err := in.guard(ctx, func() {
		if c := in.execBlock(prog.Body.Statements, in.globals); c.returned {
			panic(errors.Runtimef("return outside of a function"))
		}
	})
	if err != nil {
		return err
	}

	plog.Debugf("top level finished, %d processes queued", len(in.sched.Queue()))
	return in.sched.Drain(ctx)
}

type cancelled struct {
	err error
}

func (in *Interpreter) checkCancelled() {
	if err := in.ctx.Err(); err != nil {
		panic(cancelled{err})
	}
}

// guard runs f with ctx, turning runtime failures into errors.
func (in *Interpreter) guard(ctx context.Context, f func()) (err error) {
	saved := in.ctx
	in.ctx = ctx

	defer func() {
		in.ctx = saved

		r := recover()
		if r == nil {
			return
		}
		switch e := r.(type) {
		case errors.RuntimeError:
			err = tracerr.Wrap(e)
		case errors.InternalError:
			err = tracerr.Wrap(e)
		case cancelled:
			err = tracerr.Wrap(e.err)
		case runtime.Error:
			err = tracerr.Wrap(errors.InternalError{Msg: e.Error()})
		default:
			panic(r)
		}
	}()

	f()
	return nil
}

type completion struct {
	returned bool
	value    Value
}

// hoist binds the function declarations of a block before it runs.
func (in *Interpreter) hoist(stmts []jsast.Node, env *Env) {
	for _, stmt := range stmts {
		switch d := stmt.(type) {
		case *jsast.FunctionDecl:
			env.Define(d.Name.Name, &Function{Decl: d, Env: env})
		case *jsast.ResumableFunctionDecl:
			env.Define(d.Name.Name, &ResumableFunction{Decl: d, Env: env})
		}
	}
}

func (in *Interpreter) execBlock(stmts []jsast.Node, env *Env) completion {
	in.hoist(stmts, env)
	for _, stmt := range stmts {
		if c := in.exec(stmt, env); c.returned {
			return c
		}
	}
	return completion{}
}

func (in *Interpreter) exec(stmt jsast.Node, env *Env) completion {
	switch s := stmt.(type) {
	case *jsast.ExpressionStatement:
		in.eval(s.Expression, env)
	case *jsast.VariableDeclaration:
		env.Define(s.Name.Name, in.eval(s.Init, env))
	case *jsast.Block:
		return in.execBlock(s.Statements, NewEnv(env))
	case *jsast.If:
		if truthy(in.eval(s.Test, env)) {
			return in.exec(s.Consequent, env)
		} else if s.Alternate != nil {
			return in.exec(s.Alternate, env)
		}
	case *jsast.While:
		for truthy(in.eval(s.Test, env)) {
			in.checkCancelled()
			if c := in.exec(s.Body, env); c.returned {
				return c
			}
		}
	case *jsast.FunctionDecl, *jsast.ResumableFunctionDecl:
		// bound by hoist
	case *jsast.Return:
		c := completion{returned: true}
		if s.Value != nil {
			c.value = in.eval(s.Value, env)
		}
		return c
	case *jsast.SuspensionPoint:
		panic(errors.Runtimef("yield outside of a process body"))
	default:
		panic(errors.InternalError{Msg: "cannot execute node", Node: stmt})
	}
	return completion{}
}

func (in *Interpreter) eval(n jsast.Node, env *Env) Value {
	switch e := n.(type) {
	case *jsast.NumericLiteral:
		return e.Value
	case *jsast.StringLiteral:
		return decodeString(e.Value)
	case *jsast.Identifier:
		v, ok := env.Lookup(e.Name)
		if !ok {
			panic(errors.Runtimef("%s is not defined", e.Name))
		}
		return v
	case *jsast.Assignment:
		v := in.eval(e.Value, env)
		in.assign(e.Target, v, env)
		return v
	case *jsast.UnaryOp:
		v := in.eval(e.Operand, env)
		switch e.Op {
		case "!":
			return !truthy(v)
		case "-":
			return -toNumber(v)
		}
	case *jsast.BinaryOp:
		return binary(e.Op, in.eval(e.Left, env), in.eval(e.Right, env))
	case *jsast.LogicalOp:
		left := in.eval(e.Left, env)
		switch e.Op {
		case "&&":
			if !truthy(left) {
				return left
			}
			return in.eval(e.Right, env)
		case "||":
			if truthy(left) {
				return left
			}
			return in.eval(e.Right, env)
		}
	case *jsast.PrefixUpdate:
		v := toNumber(in.eval(e.Operand, env)) + delta(e.Op)
		in.assign(e.Operand, v, env)
		return v
	case *jsast.PostfixUpdate:
		old := toNumber(in.eval(e.Operand, env))
		in.assign(e.Operand, old+delta(e.Op), env)
		return old
	case *jsast.Call:
		return in.call(e, env)
	case *jsast.ListLiteral:
		l := &List{Elements: make([]Value, 0, len(e.Elements))}
		for _, el := range e.Elements {
			l.Elements = append(l.Elements, in.eval(el, env))
		}
		return l
	case *jsast.RecordLiteral:
		rec := NewRecord()
		for _, f := range e.Fields {
			rec.Set(f.Key, in.eval(f.Value, env))
		}
		return rec
	case *jsast.IndexAccess:
		return index(in.eval(e.Object, env), in.eval(e.Index, env))
	case *jsast.FieldAccess:
		return field(in.eval(e.Object, env), e.Field)
	case *jsast.SuspensionPoint:
		panic(errors.Runtimef("yield outside of a process body"))
	}

	panic(errors.InternalError{Msg: "cannot evaluate node", Node: n})
}

func delta(op string) float64 {
	if op == "--" {
		return -1
	}
	return 1
}

func (in *Interpreter) assign(target jsast.Node, v Value, env *Env) {
	switch t := target.(type) {
	case *jsast.Identifier:
		if !env.Set(t.Name, v) {
			panic(errors.Runtimef("assignment to undeclared variable %s", t.Name))
		}
	case *jsast.IndexAccess:
		obj := in.eval(t.Object, env)
		idx := in.eval(t.Index, env)
		switch o := obj.(type) {
		case *List:
			i, ok := intIndex(idx)
			if !ok || i < 0 {
				panic(errors.Runtimef("invalid list index %s", display(idx, true)))
			}
			for len(o.Elements) <= i {
				o.Elements = append(o.Elements, nil)
			}
			o.Elements[i] = v
		case *Record:
			o.Set(toString(idx), v)
		default:
			panic(errors.Runtimef("cannot set index %s of %s", display(idx, true), typeName(obj)))
		}
	case *jsast.FieldAccess:
		obj := in.eval(t.Object, env)
		rec, ok := obj.(*Record)
		if !ok {
			panic(errors.Runtimef("cannot set property %s of %s", t.Field, typeName(obj)))
		}
		rec.Set(t.Field, v)
	default:
		panic(errors.InternalError{Msg: "invalid assignment target", Node: target})
	}
}

func intIndex(v Value) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func index(obj, idx Value) Value {
	switch o := obj.(type) {
	case *List:
		i, ok := intIndex(idx)
		if !ok || i < 0 || i >= len(o.Elements) {
			return nil
		}
		return o.Elements[i]
	case *Record:
		v, _ := o.Get(toString(idx))
		return v
	case string:
		i, ok := intIndex(idx)
		if !ok || i < 0 || i >= len(o) {
			return nil
		}
		return o[i : i+1]
	case nil:
		panic(errors.Runtimef("cannot read index %s of undefined", display(idx, true)))
	}
	return nil
}

func field(obj Value, name string) Value {
	switch o := obj.(type) {
	case *Record:
		v, _ := o.Get(name)
		return v
	case *List:
		if name == "length" {
			return float64(len(o.Elements))
		}
	case string:
		if name == "length" {
			return float64(len(o))
		}
	case nil:
		panic(errors.Runtimef("cannot read property %s of undefined", name))
	}
	return nil
}

func binary(op string, a, b Value) Value {
	switch op {
	case "+":
		if concatenates(a) || concatenates(b) {
			return toString(a) + toString(b)
		}
		return toNumber(a) + toNumber(b)
	case "-":
		return toNumber(a) - toNumber(b)
	case "*":
		return toNumber(a) * toNumber(b)
	case "/":
		return toNumber(a) / toNumber(b)
	case "===":
		return strictEqual(a, b)
	case "!==":
		return !strictEqual(a, b)
	case "<", "<=", ">", ">=":
		return compare(op, a, b)
	}
	panic(errors.InternalError{Msg: "unknown operator " + op})
}

func concatenates(v Value) bool {
	switch v.(type) {
	case string, *List, *Record:
		return true
	}
	return false
}

func compare(op string, a, b Value) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch op {
		case "<":
			return as < bs
		case "<=":
			return as <= bs
		case ">":
			return as > bs
		}
		return as >= bs
	}

	x, y := toNumber(a), toNumber(b)
	switch op {
	case "<":
		return x < y
	case "<=":
		return x <= y
	case ">":
		return x > y
	}
	return x >= y
}

func (in *Interpreter) call(c *jsast.Call, env *Env) Value {
	callee := in.eval(c.Callee, env)
	args := make([]Value, 0, len(c.Args))
	for _, a := range c.Args {
		args = append(args, in.eval(a, env))
	}
	return in.apply(callee, args)
}

func (in *Interpreter) apply(callee Value, args []Value) Value {
	switch fn := callee.(type) {
	case *Builtin:
		return fn.Fn(in, args)
	case *Function:
		in.depth++
		defer func() { in.depth-- }()
		if in.depth > maxDepth {
			panic(errors.Runtimef("maximum call depth exceeded in %s", fn.Decl.Name.Name))
		}

		scope := NewEnv(fn.Env)
		bindParams(scope, fn.Decl.Params, args)
		return in.execBlock(fn.Decl.Body.Statements, scope).value
	case *ResumableFunction:
		panic(errors.Runtimef("%s is a process body and can only be spawned", fn.Decl.Name.Name))
	}
	panic(errors.Runtimef("%s is not a function", display(callee, true)))
}

// bindParams defines params in scope; missing arguments are undefined.
func bindParams(scope *Env, params []*jsast.Identifier, args []Value) {
	for i, p := range params {
		var v Value
		if i < len(args) {
			v = args[i]
		}
		scope.Define(p.Name, v)
	}
}
