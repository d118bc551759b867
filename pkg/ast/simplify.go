package ast

// Parse tree production names that the simplifier rewrites.
const (
	KindStringLiteral        = "StringLiteral"
	KindBooleanLiteral       = "BooleanLiteral"
	KindNumberLiteral        = "NumberLiteral"
	KindQuantityLiteral      = "QuantityLiteral"
	KindDateTimeLiteral      = "DateTimeLiteral"
	KindTimeLiteral          = "TimeLiteral"
	KindQuantity             = "Quantity"
	KindUnit                 = "Unit"
	KindLiteralTerm          = "LiteralTerm"
	KindTermExpression       = "TermExpression"
	KindExternalConstantTerm = "ExternalConstantTerm"
	KindExternalConstant     = "ExternalConstant"
	KindFunctionInvocation   = "FunctionInvocation"
	KindFunctn               = "Functn"
	KindParamList            = "ParamList"
	KindIdentifier           = "Identifier"
	KindMemberInvocation     = "MemberInvocation"
	KindInvocationTerm       = "InvocationTerm"
	KindInvocationExpression = "InvocationExpression"
)

// Display node kinds produced by the simplifier.
const (
	KindConstantExpression     = "ConstantExpression"
	KindChildExpression        = "ChildExpression"
	KindVariableRefExpression  = "VariableRefExpression"
	KindFunctionCallExpression = "FunctionCallExpression"
	KindAxisExpression         = "AxisExpression"
)

// ScopeName names the implicit $this scope injected for InvocationTerm.
const ScopeName = "builtin.that"

// literalReturnTypes maps literal productions to the type they produce.
var literalReturnTypes = map[string]string{
	KindStringLiteral:   "string",
	KindBooleanLiteral:  "boolean",
	KindQuantityLiteral: "Quantity",
	KindDateTimeLiteral: "dateTime",
	KindTimeLiteral:     "time",
	KindNumberLiteral:   "Number (decimal or integer)",
}

// passThroughKinds are wrappers replaced by their only child.
var passThroughKinds = map[string]bool{
	KindFunctionInvocation:   true,
	KindUnit:                 true,
	KindLiteralTerm:          true,
	KindTermExpression:       true,
	KindExternalConstantTerm: true,
}

// rule rewrites a node whose arguments are already simplified. It reports
// false when the node's shape does not match.
type rule func(n *DisplayNode) (*DisplayNode, bool)

// rules are tried in order; the first match wins.
var rules = []rule{
	literal,
	quantity,
	passThrough,
	member,
	externalConstant,
	function,
	invocationTerm,
	invocationExpression,
}

// Simplify converts a raw parse tree into a display tree. It never fails:
// productions without a rule are kept as generic nodes.
func Simplify(raw *RawNode) *DisplayNode {
	if raw == nil {
		return nil
	}
	n := &DisplayNode{
		ExpressionType: raw.Type,
		Name:           raw.Text,
		Length:         raw.Length,
	}
	if n.Name == "" {
		n.Name = raw.DelimitedText
	}
	if raw.Start != nil {
		n.Line = raw.Start.Line
		n.Column = raw.Start.Column
	}
	if len(raw.Children) > 0 {
		n.Arguments = make([]*DisplayNode, 0, len(raw.Children))
		for _, child := range raw.Children {
			if child != nil {
				n.Arguments = append(n.Arguments, Simplify(child))
			}
		}
		if len(n.Arguments) == 0 {
			n.Arguments = nil
		}
	}
	return rewrite(n)
}

// Rewrite applies the simplification rules to an existing display tree.
// On the output of Simplify it is a no-op.
func Rewrite(n *DisplayNode) *DisplayNode {
	if n == nil {
		return nil
	}
	c := n.clone()
	for i, arg := range c.Arguments {
		c.Arguments[i] = Rewrite(arg)
	}
	return rewrite(c)
}

func rewrite(n *DisplayNode) *DisplayNode {
	for _, r := range rules {
		if out, ok := r(n); ok {
			return out
		}
	}
	return n
}

func literal(n *DisplayNode) (*DisplayNode, bool) {
	returnType, ok := literalReturnTypes[n.ExpressionType]
	if !ok {
		return nil, false
	}
	c := n.clone()
	c.ExpressionType = KindConstantExpression
	c.ReturnType = returnType
	switch n.ExpressionType {
	case KindStringLiteral:
		c.Name = trim(c.Name, 1, 1)
	case KindDateTimeLiteral:
		c.Name = trim(c.Name, 1, 0)
	case KindTimeLiteral:
		c.Name = trim(c.Name, 2, 0)
	case KindQuantityLiteral:
		if len(c.Arguments) > 0 {
			c.Name = c.Arguments[0].Name
		}
		c.Arguments = nil
	}
	return c, true
}

func quantity(n *DisplayNode) (*DisplayNode, bool) {
	if n.ExpressionType != KindQuantity || len(n.Arguments) != 1 {
		return nil, false
	}
	c := n.withArguments(nil)
	c.Name = n.Name + " " + n.Arguments[0].Name
	return c, true
}

func passThrough(n *DisplayNode) (*DisplayNode, bool) {
	if !passThroughKinds[n.ExpressionType] || len(n.Arguments) != 1 {
		return nil, false
	}
	child := n.Arguments[0]
	if n.ExpressionType == KindLiteralTerm {
		child = child.clone()
		child.Line = n.Line
		child.Column = n.Column
		child.Length = n.Length
	}
	return child, true
}

func member(n *DisplayNode) (*DisplayNode, bool) {
	return renameIdentifier(n, KindMemberInvocation, KindChildExpression)
}

func externalConstant(n *DisplayNode) (*DisplayNode, bool) {
	return renameIdentifier(n, KindExternalConstant, KindVariableRefExpression)
}

// renameIdentifier turns a from-node wrapping a single Identifier into a
// childless to-node named after the identifier.
func renameIdentifier(n *DisplayNode, from, to string) (*DisplayNode, bool) {
	if n.ExpressionType != from || !hasKinds(n, KindIdentifier) {
		return nil, false
	}
	c := n.withArguments(nil)
	c.ExpressionType = to
	c.Name = n.Arguments[0].Name
	return c, true
}

func function(n *DisplayNode) (*DisplayNode, bool) {
	if n.ExpressionType != KindFunctn {
		return nil, false
	}
	switch {
	case hasKinds(n, KindIdentifier, KindParamList):
		ident, params := n.Arguments[0], n.Arguments[1]
		c := n.withArguments(params.Arguments)
		c.ExpressionType = KindFunctionCallExpression
		c.Name = ident.Name
		c.Line = ident.Line
		c.Column = ident.Column
		c.Length = ident.Length
		return c, true
	case hasKinds(n, KindIdentifier):
		c := n.withArguments(nil)
		c.ExpressionType = KindFunctionCallExpression
		c.Name = n.Arguments[0].Name
		return c, true
	}
	return nil, false
}

// invocationTerm makes the implicit $this scope of a term explicit by
// injecting it as the first argument of the invoked node.
func invocationTerm(n *DisplayNode) (*DisplayNode, bool) {
	if n.ExpressionType != KindInvocationTerm || len(n.Arguments) != 1 {
		return nil, false
	}
	scope := &DisplayNode{ExpressionType: KindAxisExpression, Name: ScopeName}
	return n.Arguments[0].prepend(scope), true
}

// invocationExpression flattens "a.b" into b(a): the left operand becomes
// the first argument of the invocation on the right.
func invocationExpression(n *DisplayNode) (*DisplayNode, bool) {
	if n.ExpressionType != KindInvocationExpression || len(n.Arguments) < 2 {
		return nil, false
	}
	return n.Arguments[1].prepend(n.Arguments[0]), true
}

// hasKinds reports whether n's arguments have exactly the given kinds.
func hasKinds(n *DisplayNode, kinds ...string) bool {
	if len(n.Arguments) != len(kinds) {
		return false
	}
	for i, kind := range kinds {
		if n.Arguments[i].ExpressionType != kind {
			return false
		}
	}
	return true
}

// trim drops head and tail bytes from s, returning "" when s is shorter.
func trim(s string, head, tail int) string {
	if len(s) < head+tail {
		return ""
	}
	return s[head : len(s)-tail]
}
