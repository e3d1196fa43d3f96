package interp

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pontaoski/evampp/errors"
)

const sleepName = "sleep"

func builtins() (ret map[string]*Builtin) {
	ret = make(map[string]*Builtin)

	funcs := []func() *Builtin{
		addPrint,
		addSpawn,
		addSleep,
	}
	for _, fn := range funcs {
		b := fn()
		ret[b.Name] = b
	}

	return
}

func addPrint() *Builtin {
	return &Builtin{Name: "print", Fn: func(in *Interpreter, args []Value) Value {
		parts := make([]string, 0, len(args))
		for _, arg := range args {
			parts = append(parts, display(arg, false))
		}
		fmt.Fprintln(in.out, strings.Join(parts, " "))
		return nil
	}}
}

func addSpawn() *Builtin {
	return &Builtin{Name: "spawn", Fn: func(in *Interpreter, args []Value) Value {
		if len(args) == 0 {
			panic(errors.Runtimef("spawn expects a process body"))
		}
		body, ok := args[0].(*ResumableFunction)
		if !ok {
			panic(errors.Runtimef("spawn expects a process body, got %s", typeName(args[0])))
		}

		p := in.sched.Spawn(newFrame(in, body, args[1:]))
		plog.Debugf("spawn %s with %d arguments", p, len(args)-1)
		return nil
	}}
}

// sleep only suspends when a process body calls it as a statement; the
// frame intercepts those calls before they get here.
func addSleep() *Builtin {
	return &Builtin{Name: sleepName, Fn: func(in *Interpreter, args []Value) Value {
		panic(errors.Runtimef("sleep can only be called as a statement of a process body"))
	}}
}

func sleepDuration(args []Value) time.Duration {
	if len(args) == 0 {
		return 0
	}
	ms := toNumber(args[0])
	if math.IsNaN(ms) || ms <= 0 {
		return 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}
