// Package translator turns Eva symbolic forms into a JavaScript syntax tree.
package translator

import (
	"runtime"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/evampp/errors"
	"github.com/pontaoski/evampp/jsast"
	"github.com/pontaoski/evampp/sexp"
	"github.com/pontaoski/evampp/transform"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/evampp", "translator")

// SpawnPrimitive is the runtime function that starts a process.
const SpawnPrimitive = "spawn"

var (
	unaryOperators = map[string]string{
		"not": "!",
		"-":   "-",
	}
	updateOperators = map[string]bool{
		"++": true,
		"--": true,
	}
	binaryOperators = map[string]string{
		"+":  "+",
		"-":  "-",
		"*":  "*",
		"/":  "/",
		"==": "===",
		"!=": "!==",
		">":  ">",
		">=": ">=",
		"<":  "<",
		"<=": "<=",
	}
	logicalOperators = map[string]string{
		"and": "&&",
		"or":  "||",
	}
	// spellings that look logical but have no translation
	unknownLogical = map[string]bool{
		"xor": true,
		"&&":  true,
		"||":  true,
	}
	// a function body ending in one of these gets no automatic return
	statementHeads = map[string]bool{
		"begin":  true,
		"if":     true,
		"while":  true,
		"var":    true,
		"def":    true,
		"return": true,
	}
)

type entry struct {
	decl  jsast.Node
	block *jsast.Block
	index int
}

// FunctionInfo describes a function known to the translator.
type FunctionInfo struct {
	Name      string   `yaml:"name"`
	Params    []string `yaml:"params,flow"`
	Resumable bool     `yaml:"resumable,omitempty"`
	Process   string   `yaml:"process,omitempty"`
}

// Translator owns the state of one compile: the function registry, the
// process bodies built so far and the stack of blocks under construction.
// It is not safe for concurrent use.
type Translator struct {
	names     *names
	functions map[string]*entry
	order     []string
	processes map[string]*jsast.ResumableFunctionDecl
	blocks    []*jsast.Block
	scheduled bool
}

func New() *Translator {
	t := &Translator{}
	t.reset()
	return t
}

func (t *Translator) reset() {
	t.names = newNames()
	t.functions = map[string]*entry{}
	t.order = nil
	t.processes = map[string]*jsast.ResumableFunctionDecl{}
	t.blocks = nil
	t.scheduled = false
}

// catch turns a translation panic into an error. The registry and block
// stack are discarded, so a failed compile leaves nothing behind.
func (t *Translator) catch(err *error) {
	r := recover()
	if r == nil {
		return
	}

	rerr, ok := r.(error)
	if !ok {
		panic(r)
	}
	if rt, ok := rerr.(runtime.Error); ok {
		rerr = errors.InternalError{Msg: rt.Error()}
	}

	t.reset()
	*err = tracerr.Wrap(rerr)
}

// Translate converts a single form.
func (t *Translator) Translate(form sexp.Form) (node jsast.Node, err error) {
	defer t.catch(&err)

	return t.gen(form), nil
}

// TranslateProgram converts a whole program, which must be a (begin ...) form.
func (t *Translator) TranslateProgram(program sexp.List) (prog *jsast.Program, err error) {
	defer t.catch(&err)

	if !isBegin(program) {
		panic(errors.UnsupportedForm{Form: program, Reason: "a program must be a (begin ...) form"})
	}

	body := t.gen(program).(*jsast.Block)
	return &jsast.Program{Body: body, Scheduled: t.scheduled}, nil
}

// Functions lists registered functions in registration order.
func (t *Translator) Functions() []FunctionInfo {
	var ret []FunctionInfo
	for _, name := range t.order {
		switch decl := t.functions[name].decl.(type) {
		case *jsast.FunctionDecl:
			info := FunctionInfo{Name: name, Params: paramNames(decl.Params)}
			if res, ok := t.processes[name]; ok {
				info.Process = res.Name.Name
			}
			ret = append(ret, info)
		case *jsast.ResumableFunctionDecl:
			ret = append(ret, FunctionInfo{Name: name, Params: paramNames(decl.Params), Resumable: true})
		}
	}
	return ret
}

func paramNames(ids []*jsast.Identifier) []string {
	ret := make([]string, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, id.Name)
	}
	return ret
}

func (t *Translator) pushBlock(b *jsast.Block) {
	t.blocks = append(t.blocks, b)
}

func (t *Translator) popBlock() {
	t.blocks = t.blocks[:len(t.blocks)-1]
}

func (t *Translator) currentBlock() *jsast.Block {
	if len(t.blocks) == 0 {
		return nil
	}
	return t.blocks[len(t.blocks)-1]
}

func unsupported(f sexp.Form, reason string) errors.UnsupportedForm {
	return errors.UnsupportedForm{Form: f, Reason: reason}
}

func isBegin(f sexp.Form) bool {
	l, ok := f.(sexp.List)
	return ok && len(l) > 0 && sexp.IsSymbol(l[0], "begin")
}

func isStatementForm(f sexp.Form) bool {
	l, ok := f.(sexp.List)
	if !ok {
		return false
	}
	head, ok := sexp.Head(l)
	return ok && statementHeads[string(head)]
}

func (t *Translator) gen(form sexp.Form) jsast.Node {
	switch f := form.(type) {
	case sexp.Number:
		return &jsast.NumericLiteral{Value: float64(f)}
	case sexp.String:
		if !f.Quoted() {
			panic(unsupported(f, "string literal is missing its quotes"))
		}
		return &jsast.StringLiteral{Value: f.Unquote()}
	case sexp.Symbol:
		return t.identifier(f)
	case sexp.List:
		return t.genList(f)
	}

	panic(unsupported(form, "unknown kind of form"))
}

func (t *Translator) identifier(sym sexp.Symbol) *jsast.Identifier {
	if !IsIdentifier(string(sym)) {
		panic(unsupported(sym, "not a valid name"))
	}
	return &jsast.Identifier{Name: t.names.mangle(string(sym))}
}

func (t *Translator) name(f sexp.Form, within sexp.Form) *jsast.Identifier {
	sym, ok := f.(sexp.Symbol)
	if !ok {
		panic(unsupported(within, sexp.Format(f)+" is not a name"))
	}
	return t.identifier(sym)
}

func (t *Translator) genList(l sexp.List) jsast.Node {
	if len(l) == 0 {
		panic(unsupported(l, "empty list"))
	}

	head, isSym := sexp.Head(l)
	if isSym {
		switch h := string(head); h {
		case "var":
			if len(l) != 3 {
				panic(unsupported(l, "var expects a name and an initializer"))
			}
			return &jsast.VariableDeclaration{Name: t.name(l[1], l), Init: t.gen(l[2])}
		case "set":
			if len(l) != 3 {
				panic(unsupported(l, "set expects a target and a value"))
			}
			return &jsast.Assignment{Target: t.assignable(l[1], l), Value: t.gen(l[2])}
		case "begin":
			return t.genBlock(l)
		case "if":
			return t.genIf(l)
		case "while":
			if len(l) != 3 {
				panic(unsupported(l, "while expects a test and a body"))
			}
			return &jsast.While{Test: t.gen(l[1]), Body: t.branch(l[2])}
		case "def":
			return t.genDef(l)
		case "return":
			switch len(l) {
			case 1:
				return &jsast.Return{}
			case 2:
				return &jsast.Return{Value: t.gen(l[1])}
			}
			panic(unsupported(l, "return takes at most one value"))
		case "list":
			elems := make([]jsast.Node, 0, len(l)-1)
			for _, el := range l[1:] {
				elems = append(elems, t.gen(el))
			}
			return &jsast.ListLiteral{Elements: elems}
		case "idx":
			if len(l) != 3 {
				panic(unsupported(l, "idx expects an object and an index"))
			}
			return &jsast.IndexAccess{Object: t.gen(l[1]), Index: t.gen(l[2])}
		case "rec":
			return t.genRecord(l)
		case "prop":
			if len(l) != 3 {
				panic(unsupported(l, "prop expects an object and a field name"))
			}
			field := t.name(l[2], l)
			return &jsast.FieldAccess{Object: t.gen(l[1]), Field: field.Name}
		}

		if node := t.genOperator(string(head), l); node != nil {
			return node
		}
	}

	if len(l) == 2 {
		if op, ok := l[1].(sexp.Symbol); ok && updateOperators[string(op)] {
			return &jsast.PostfixUpdate{Op: string(op), Operand: t.assignable(l[0], l)}
		}
	}

	return t.genCall(l)
}

// genOperator handles operator forms. It returns nil when h is not an
// operator and fails when it is one used with the wrong number of operands.
func (t *Translator) genOperator(h string, l sexp.List) jsast.Node {
	if op, ok := unaryOperators[h]; ok && len(l) == 2 {
		return &jsast.UnaryOp{Op: op, Operand: t.gen(l[1])}
	}
	if updateOperators[h] && len(l) == 2 {
		return &jsast.PrefixUpdate{Op: h, Operand: t.assignable(l[1], l)}
	}
	if op, ok := binaryOperators[h]; ok && len(l) == 3 {
		return &jsast.BinaryOp{Op: op, Left: t.gen(l[1]), Right: t.gen(l[2])}
	}
	if len(l) == 3 {
		if op, ok := logicalOperators[h]; ok {
			return &jsast.LogicalOp{Op: op, Left: t.gen(l[1]), Right: t.gen(l[2])}
		}
		if unknownLogical[h] {
			panic(errors.UnknownLogicalOperator{Operator: h, Form: l})
		}
	}

	_, unary := unaryOperators[h]
	_, binary := binaryOperators[h]
	_, logical := logicalOperators[h]
	if unary || binary || logical || updateOperators[h] || unknownLogical[h] {
		panic(unsupported(l, "wrong number of operands for "+h))
	}
	return nil
}

func (t *Translator) assignable(f sexp.Form, within sexp.Form) jsast.Node {
	switch v := f.(type) {
	case sexp.Symbol:
		return t.identifier(v)
	case sexp.List:
		if head, ok := sexp.Head(v); ok && (head == "idx" || head == "prop") {
			return t.gen(v)
		}
	}
	panic(unsupported(within, "cannot assign to "+sexp.Format(f)))
}

func (t *Translator) genBlock(l sexp.List) *jsast.Block {
	blk := &jsast.Block{Statements: make([]jsast.Node, 0, len(l)-1)}

	// A failed translation resets the whole stack, so there is no deferred pop.
	t.pushBlock(blk)
	for _, f := range l[1:] {
		n := t.gen(f)
		blk.Statements = append(blk.Statements, toStatement(n))
	}
	t.popBlock()

	return blk
}

// branch translates an if branch, loop body or function body into a block.
func (t *Translator) branch(f sexp.Form) *jsast.Block {
	if isBegin(f) {
		return t.genBlock(f.(sexp.List))
	}

	blk := &jsast.Block{}
	t.pushBlock(blk)
	n := t.gen(f)
	t.popBlock()

	blk.Statements = append(blk.Statements, toStatement(n))
	return blk
}

func (t *Translator) genIf(l sexp.List) jsast.Node {
	if len(l) != 3 && len(l) != 4 {
		panic(unsupported(l, "if expects a test, a consequent and an optional alternate"))
	}

	node := &jsast.If{
		Test:       t.gen(l[1]),
		Consequent: t.branch(l[2]),
	}
	if len(l) == 4 {
		node.Alternate = t.branch(l[3])
	}
	return node
}

func (t *Translator) genDef(l sexp.List) jsast.Node {
	if len(l) != 4 {
		panic(unsupported(l, "def expects a name, a parameter list and a body"))
	}

	name := t.name(l[1], l)

	rawParams, ok := l[2].(sexp.List)
	if !ok {
		panic(unsupported(l, "def parameters must be a list"))
	}
	params := make([]*jsast.Identifier, 0, len(rawParams))
	for _, p := range rawParams {
		params = append(params, t.name(p, l))
	}

	decl := &jsast.FunctionDecl{
		Name:   name,
		Params: params,
		Body:   t.genBlock(withReturn(l[3])),
	}
	t.register(name.Name, decl)

	return decl
}

// withReturn wraps body in (begin ...) and makes its last expression the
// return value. Only the outermost statement is rewritten.
func withReturn(body sexp.Form) sexp.List {
	var blk sexp.List
	if isBegin(body) {
		blk = body.(sexp.List)
	} else {
		blk = sexp.List{sexp.Symbol("begin"), body}
	}

	if len(blk) < 2 {
		return blk
	}
	last := blk[len(blk)-1]
	if isStatementForm(last) {
		return blk
	}

	ret := make(sexp.List, len(blk))
	copy(ret, blk)
	ret[len(ret)-1] = sexp.List{sexp.Symbol("return"), last}
	return ret
}

func (t *Translator) register(name string, decl jsast.Node) {
	e := &entry{decl: decl}
	if blk := t.currentBlock(); blk != nil {
		e.block = blk
		e.index = len(blk.Statements)
	}

	if _, ok := t.functions[name]; !ok {
		t.order = append(t.order, name)
	}
	t.functions[name] = e
	plog.Debugf("registered function %s at index %d", name, e.index)
}

func (t *Translator) genRecord(l sexp.List) jsast.Node {
	rec := &jsast.RecordLiteral{}
	seen := map[string]bool{}

	for _, f := range l[1:] {
		var field jsast.RecordField
		switch v := f.(type) {
		case sexp.Symbol:
			id := t.identifier(v)
			field = jsast.RecordField{Key: id.Name, Value: id}
		case sexp.List:
			if len(v) != 2 {
				panic(unsupported(l, "record field "+sexp.Format(v)+" must be (key value)"))
			}
			field = jsast.RecordField{Key: t.name(v[0], l).Name, Value: t.gen(v[1])}
		default:
			panic(unsupported(l, "record field "+sexp.Format(f)+" must be a name or (key value)"))
		}

		if seen[field.Key] {
			panic(errors.DuplicateField{Name: field.Key, Form: l})
		}
		seen[field.Key] = true
		rec.Fields = append(rec.Fields, field)
	}

	return rec
}

func (t *Translator) genCall(l sexp.List) jsast.Node {
	call := &jsast.Call{
		Callee: t.gen(l[0]),
		Args:   make([]jsast.Node, 0, len(l)-1),
	}
	for _, arg := range l[1:] {
		call.Args = append(call.Args, t.gen(arg))
	}

	if id, ok := call.Callee.(*jsast.Identifier); ok && id.Name == SpawnPrimitive {
		t.specializeSpawn(l, call)
	}

	return call
}

// specializeSpawn points a spawn call at the resumable counterpart of the
// spawned function, building it the first time that function is spawned.
func (t *Translator) specializeSpawn(l sexp.List, call *jsast.Call) {
	if len(call.Args) == 0 {
		panic(unsupported(l, "spawn expects a function to run"))
	}
	target, ok := call.Args[0].(*jsast.Identifier)
	if !ok {
		panic(unsupported(l, "the first argument of spawn must name a function"))
	}
	e, ok := t.functions[target.Name]
	if !ok {
		panic(errors.UndefinedFunction{Name: target.Name, Form: l})
	}

	t.scheduled = true

	switch decl := e.decl.(type) {
	case *jsast.ResumableFunctionDecl:
	case *jsast.FunctionDecl:
		res := t.materialize(target.Name, decl, e, l)
		call.Args[0] = &jsast.Identifier{Name: res.Name.Name}
	default:
		panic(errors.InternalError{Msg: "registry holds a non-function", Node: decl})
	}
}

func (t *Translator) materialize(name string, decl *jsast.FunctionDecl, e *entry, l sexp.List) *jsast.ResumableFunctionDecl {
	if res, ok := t.processes[name]; ok {
		return res
	}
	if e.block == nil {
		panic(unsupported(l, "function "+name+" has no enclosing block to hold its process body"))
	}

	res := transform.ToResumable(decl)
	res.Name.Name = t.names.claim("process:"+name, res.Name.Name)

	at := e.index + 1
	for _, other := range t.functions {
		if other.block == e.block && other.index >= at {
			other.index++
		}
	}
	e.block.Insert(at, res)

	t.processes[name] = res
	t.functions[res.Name.Name] = &entry{decl: res, block: e.block, index: at}
	t.order = append(t.order, res.Name.Name)
	plog.Debugf("materialized process body %s for %s at index %d", res.Name.Name, name, at)

	return res
}

// toStatement wraps expression nodes so they can sit in a block.
func toStatement(n jsast.Node) jsast.Node {
	switch n.(type) {
	case *jsast.Block, *jsast.If, *jsast.While,
		*jsast.FunctionDecl, *jsast.ResumableFunctionDecl,
		*jsast.VariableDeclaration, *jsast.Return, *jsast.ExpressionStatement:
		return n
	case *jsast.NumericLiteral, *jsast.StringLiteral, *jsast.Identifier,
		*jsast.Call, *jsast.BinaryOp, *jsast.UnaryOp, *jsast.LogicalOp,
		*jsast.PrefixUpdate, *jsast.PostfixUpdate, *jsast.SuspensionPoint,
		*jsast.ListLiteral, *jsast.RecordLiteral, *jsast.IndexAccess,
		*jsast.FieldAccess, *jsast.Assignment:
		return &jsast.ExpressionStatement{Expression: n}
	}

	panic(errors.InternalError{Msg: "cannot turn node into a statement", Node: n})
}
