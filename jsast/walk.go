package jsast

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// every node. Children are skipped when f returns false.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}

	switch v := n.(type) {
	case *NumericLiteral, *StringLiteral, *Identifier, *SuspensionPoint:
	case *VariableDeclaration:
		Inspect(v.Name, f)
		Inspect(v.Init, f)
	case *Assignment:
		Inspect(v.Target, f)
		Inspect(v.Value, f)
	case *UnaryOp:
		Inspect(v.Operand, f)
	case *BinaryOp:
		Inspect(v.Left, f)
		Inspect(v.Right, f)
	case *LogicalOp:
		Inspect(v.Left, f)
		Inspect(v.Right, f)
	case *PrefixUpdate:
		Inspect(v.Operand, f)
	case *PostfixUpdate:
		Inspect(v.Operand, f)
	case *Call:
		Inspect(v.Callee, f)
		inspectAll(v.Args, f)
	case *Block:
		inspectAll(v.Statements, f)
	case *If:
		Inspect(v.Test, f)
		Inspect(v.Consequent, f)
		Inspect(v.Alternate, f)
	case *While:
		Inspect(v.Test, f)
		Inspect(v.Body, f)
	case *FunctionDecl:
		Inspect(v.Name, f)
		for _, p := range v.Params {
			Inspect(p, f)
		}
		Inspect(v.Body, f)
	case *ResumableFunctionDecl:
		Inspect(v.Name, f)
		for _, p := range v.Params {
			Inspect(p, f)
		}
		Inspect(v.Body, f)
	case *Return:
		Inspect(v.Value, f)
	case *ListLiteral:
		inspectAll(v.Elements, f)
	case *RecordLiteral:
		for _, field := range v.Fields {
			Inspect(field.Value, f)
		}
	case *IndexAccess:
		Inspect(v.Object, f)
		Inspect(v.Index, f)
	case *FieldAccess:
		Inspect(v.Object, f)
	case *ExpressionStatement:
		Inspect(v.Expression, f)
	case *Program:
		Inspect(v.Body, f)
	default:
		panic("unhandled")
	}
}

func inspectAll(nodes []Node, f func(Node) bool) {
	for _, n := range nodes {
		Inspect(n, f)
	}
}
