// Package ast converts FHIRPath parse trees into a compact tree for
// diagnostic display.
//
// The input is the concrete parse tree emitted by the FHIRPath parser
// (grammar production names such as InvocationExpression or MemberInvocation).
// Simplify folds literal wrappers, renames member and function invocations
// and flattens chained invocations so that each step of a path appears as
// one node whose first argument is the step it applies to.
package ast

import gojson "github.com/goccy/go-json"

// Position is a 1-based line and column in the expression source.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// RawNode is a node of the parser's concrete syntax tree.
type RawNode struct {
	Type          string     `json:"type"`
	Text          string     `json:"text,omitempty"`
	DelimitedText string     `json:"delimitedText,omitempty"`
	Start         *Position  `json:"start,omitempty"`
	Length        int        `json:"length,omitempty"`
	Children      []*RawNode `json:"children,omitempty"`
}

// DisplayNode is a node of the simplified tree. Arguments is either nil
// or non-empty.
type DisplayNode struct {
	ExpressionType string         `json:"ExpressionType"`
	Name           string         `json:"Name"`
	Arguments      []*DisplayNode `json:"Arguments,omitempty"`
	ReturnType     string         `json:"ReturnType,omitempty"`
	Length         int            `json:"Length,omitempty"`
	Line           int            `json:"Line,omitempty"`
	Column         int            `json:"Column,omitempty"`
}

// MarshalIndent renders the tree as 2-space indented JSON.
func (n *DisplayNode) MarshalIndent() ([]byte, error) {
	return gojson.MarshalIndent(n, "", "  ")
}

// clone returns a shallow copy with its own argument slice.
func (n *DisplayNode) clone() *DisplayNode {
	c := *n
	if n.Arguments != nil {
		c.Arguments = append([]*DisplayNode(nil), n.Arguments...)
	}
	return &c
}

// withArguments returns a copy of n whose arguments are args, dropping the
// attribute entirely when args is empty.
func (n *DisplayNode) withArguments(args []*DisplayNode) *DisplayNode {
	c := *n
	c.Arguments = nil
	if len(args) > 0 {
		c.Arguments = args
	}
	return &c
}

// prepend returns a copy of n with first inserted before its arguments.
func (n *DisplayNode) prepend(first *DisplayNode) *DisplayNode {
	args := make([]*DisplayNode, 0, len(n.Arguments)+1)
	args = append(args, first)
	args = append(args, n.Arguments...)
	return n.withArguments(args)
}

// Walk visits n and all of its descendants depth first. Returning false
// from fn skips the node's arguments.
func Walk(n *DisplayNode, fn func(*DisplayNode) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, arg := range n.Arguments {
		Walk(arg, fn)
	}
}
