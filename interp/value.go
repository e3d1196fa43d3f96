package interp

import (
	"math"
	"strconv"
	"strings"

	"github.com/pontaoski/evampp/errors"
	"github.com/pontaoski/evampp/jsast"
	"github.com/pontaoski/evampp/sexp"
)

// Value is a runtime value: nil (undefined), float64, string, bool, *List,
// *Record, *Function, *ResumableFunction or *Builtin.
type Value interface{}

type List struct {
	Elements []Value
}

// Record keeps its fields in insertion order.
type Record struct {
	keys   []string
	fields map[string]Value
}

func NewRecord() *Record {
	return &Record{fields: map[string]Value{}}
}

func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.fields[key]
	return v, ok
}

func (r *Record) Set(key string, v Value) {
	if _, ok := r.fields[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = v
}

func (r *Record) Keys() []string {
	return r.keys
}

type Function struct {
	Decl *jsast.FunctionDecl
	Env  *Env
}

// ResumableFunction is a process body; it only runs when spawned.
type ResumableFunction struct {
	Decl *jsast.ResumableFunctionDecl
	Env  *Env
}

type Builtin struct {
	Name string
	Fn   func(in *Interpreter, args []Value) Value
}

func truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return true
}

func toNumber(v Value) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

func strictEqual(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return a == b
}

func typeName(v Value) string {
	switch v.(type) {
	case nil:
		return "undefined"
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case *List:
		return "list"
	case *Record:
		return "record"
	case *Function, *Builtin:
		return "function"
	case *ResumableFunction:
		return "process body"
	}
	panic(errors.InternalError{Msg: "value of unknown type", Node: v})
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return sexp.FormatNumber(f)
}

// toString converts v the way string concatenation does.
func toString(v Value) string {
	switch x := v.(type) {
	case string:
		return x
	case *List:
		parts := make([]string, 0, len(x.Elements))
		for _, el := range x.Elements {
			if el == nil {
				parts = append(parts, "")
				continue
			}
			parts = append(parts, toString(el))
		}
		return strings.Join(parts, ",")
	case *Record:
		return "[object Object]"
	}
	return display(v, false)
}

// display renders v like console.log; nested strings are quoted.
func display(v Value, nested bool) string {
	switch x := v.(type) {
	case nil:
		return "undefined"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatNumber(x)
	case string:
		if nested {
			return "'" + strings.ReplaceAll(x, "'", `\'`) + "'"
		}
		return x
	case *List:
		if len(x.Elements) == 0 {
			return "[]"
		}
		parts := make([]string, 0, len(x.Elements))
		for _, el := range x.Elements {
			parts = append(parts, display(el, true))
		}
		return "[ " + strings.Join(parts, ", ") + " ]"
	case *Record:
		if len(x.keys) == 0 {
			return "{}"
		}
		parts := make([]string, 0, len(x.keys))
		for _, k := range x.keys {
			parts = append(parts, k+": "+display(x.fields[k], true))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *Function:
		return "[Function: " + x.Decl.Name.Name + "]"
	case *ResumableFunction:
		return "[AsyncGeneratorFunction: " + x.Decl.Name.Name + "]"
	case *Builtin:
		return "[Function: " + x.Name + "]"
	}
	panic(errors.InternalError{Msg: "value of unknown type", Node: v})
}

// decodeString resolves the escapes kept in a string literal's source text.
func decodeString(raw string) string {
	s, err := strconv.Unquote(`"` + raw + `"`)
	if err != nil {
		return raw
	}
	return s
}
