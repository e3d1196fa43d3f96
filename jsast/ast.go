// Package jsast is the JavaScript-shaped syntax tree the translator builds
// and the printer and interpreter consume.
package jsast

type Node interface {
	is_Node()
}

type NumericLiteral struct {
	Value float64
}

func (v *NumericLiteral) is_Node() {}

type StringLiteral struct {
	Value string
}

func (v *StringLiteral) is_Node() {}

type Identifier struct {
	Name string
}

func (v *Identifier) is_Node() {}

type VariableDeclaration struct {
	Name *Identifier
	Init Node
}

func (v *VariableDeclaration) is_Node() {}

// Assignment targets an Identifier, IndexAccess or FieldAccess.
type Assignment struct {
	Target Node
	Value  Node
}

func (v *Assignment) is_Node() {}

type UnaryOp struct {
	Op      string
	Operand Node
}

func (v *UnaryOp) is_Node() {}

type BinaryOp struct {
	Op    string
	Left  Node
	Right Node
}

func (v *BinaryOp) is_Node() {}

type LogicalOp struct {
	Op    string
	Left  Node
	Right Node
}

func (v *LogicalOp) is_Node() {}

type PrefixUpdate struct {
	Op      string
	Operand Node
}

func (v *PrefixUpdate) is_Node() {}

type PostfixUpdate struct {
	Op      string
	Operand Node
}

func (v *PostfixUpdate) is_Node() {}

type Call struct {
	Callee Node
	Args   []Node
}

func (v *Call) is_Node() {}

type Block struct {
	Statements []Node
}

func (v *Block) is_Node() {}

// Insert places n at index i, shifting later statements.
func (v *Block) Insert(i int, n Node) {
	v.Statements = append(v.Statements, nil)
	copy(v.Statements[i+1:], v.Statements[i:])
	v.Statements[i] = n
}

// If.Alternate is nil when there is no else branch.
type If struct {
	Test       Node
	Consequent Node
	Alternate  Node
}

func (v *If) is_Node() {}

type While struct {
	Test Node
	Body Node
}

func (v *While) is_Node() {}

type FunctionDecl struct {
	Name   *Identifier
	Params []*Identifier
	Body   *Block
}

func (v *FunctionDecl) is_Node() {}

// ResumableFunctionDecl is a function the scheduler drives one segment at
// a time; its body may contain SuspensionPoints.
type ResumableFunctionDecl struct {
	Name   *Identifier
	Params []*Identifier
	Body   *Block
}

func (v *ResumableFunctionDecl) is_Node() {}

// Return.Value is nil for a bare return.
type Return struct {
	Value Node
}

func (v *Return) is_Node() {}

type SuspensionPoint struct{}

func (v *SuspensionPoint) is_Node() {}

type ListLiteral struct {
	Elements []Node
}

func (v *ListLiteral) is_Node() {}

type RecordField struct {
	Key   string
	Value Node
}

type RecordLiteral struct {
	Fields []RecordField
}

func (v *RecordLiteral) is_Node() {}

type IndexAccess struct {
	Object Node
	Index  Node
}

func (v *IndexAccess) is_Node() {}

type FieldAccess struct {
	Object Node
	Field  string
}

func (v *FieldAccess) is_Node() {}

type ExpressionStatement struct {
	Expression Node
}

func (v *ExpressionStatement) is_Node() {}

// Program is a top level statement list. Scheduled is set when the program
// spawns processes and therefore needs a final scheduling pass.
type Program struct {
	Body      *Block
	Scheduled bool
}

func (v *Program) is_Node() {}
