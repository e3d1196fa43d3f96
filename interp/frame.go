package interp

import (
	"context"
	"time"

	"github.com/pontaoski/evampp/jsast"
	"github.com/pontaoski/evampp/scheduler"
)

// cursor is the position inside one block of a suspended process body.
// A loop cursor re-tests its loop in outer once the body is exhausted.
type cursor struct {
	stmts []jsast.Node
	pc    int
	env   *Env
	loop  *jsast.While
	outer *Env
}

// frame runs a process body as a state machine, so that it can stop at a
// suspension point and pick up from there on the next step.
type frame struct {
	in     *Interpreter
	name   string
	stack  []*cursor
	result Value
}

func newFrame(in *Interpreter, fn *ResumableFunction, args []Value) *frame {
	scope := NewEnv(fn.Env)
	bindParams(scope, fn.Decl.Params, args)

	f := &frame{in: in, name: fn.Decl.Name.Name}
	f.push(fn.Decl.Body.Statements, scope)
	return f
}

func (f *frame) Name() string {
	return f.name
}

func (f *frame) Step(ctx context.Context) (status scheduler.Status, err error) {
	err = f.in.guard(ctx, func() {
		status = f.run()
	})
	return
}

func (f *frame) push(stmts []jsast.Node, env *Env) *cursor {
	f.in.hoist(stmts, env)
	c := &cursor{stmts: stmts, env: env}
	f.stack = append(f.stack, c)
	return c
}

// enter pushes a branch or loop body in a scope of its own.
func (f *frame) enter(body jsast.Node, env *Env) *cursor {
	if blk, ok := body.(*jsast.Block); ok {
		return f.push(blk.Statements, NewEnv(env))
	}
	return f.push([]jsast.Node{body}, NewEnv(env))
}

func (f *frame) loop(w *jsast.While, env *Env) {
	c := f.enter(w.Body, env)
	c.loop = w
	c.outer = env
}

func (f *frame) run() scheduler.Status {
	for len(f.stack) > 0 {
		f.in.checkCancelled()

		top := f.stack[len(f.stack)-1]
		if top.pc >= len(top.stmts) {
			f.stack = f.stack[:len(f.stack)-1]
			if top.loop != nil && truthy(f.in.eval(top.loop.Test, top.outer)) {
				f.loop(top.loop, top.outer)
			}
			continue
		}

		stmt := top.stmts[top.pc]
		top.pc++

		switch s := stmt.(type) {
		case *jsast.SuspensionPoint:
			return scheduler.Status{}
		case *jsast.ExpressionStatement:
			if _, ok := s.Expression.(*jsast.SuspensionPoint); ok {
				return scheduler.Status{}
			}
			if d, ok := f.sleep(s.Expression, top.env); ok {
				return scheduler.Status{Sleep: d}
			}
			f.in.eval(s.Expression, top.env)
		case *jsast.Block:
			f.push(s.Statements, NewEnv(top.env))
		case *jsast.If:
			if truthy(f.in.eval(s.Test, top.env)) {
				f.enter(s.Consequent, top.env)
			} else if s.Alternate != nil {
				f.enter(s.Alternate, top.env)
			}
		case *jsast.While:
			if truthy(f.in.eval(s.Test, top.env)) {
				f.loop(s, top.env)
			}
		case *jsast.Return:
			if s.Value != nil {
				f.result = f.in.eval(s.Value, top.env)
			}
			f.stack = nil
			plog.Debugf("%s returned %s", f.name, display(f.result, true))
			return scheduler.Status{Done: true}
		default:
			f.in.exec(stmt, top.env)
		}
	}

	return scheduler.Status{Done: true}
}

// sleep reports whether expr is a call of the sleep builtin and, if so,
// evaluates its arguments into the requested duration.
func (f *frame) sleep(expr jsast.Node, env *Env) (time.Duration, bool) {
	call, ok := expr.(*jsast.Call)
	if !ok {
		return 0, false
	}
	id, ok := call.Callee.(*jsast.Identifier)
	if !ok {
		return 0, false
	}
	if v, _ := env.Lookup(id.Name); v != f.in.sleepFn {
		return 0, false
	}

	args := make([]Value, 0, len(call.Args))
	for _, a := range call.Args {
		args = append(args, f.in.eval(a, env))
	}
	return sleepDuration(args), true
}
