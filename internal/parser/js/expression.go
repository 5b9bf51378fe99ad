package js

import (
	"strings"
)

// Expression is a parsed runtime expression ready to be inserted into code.
// Only ParseExpression produces valid values.
type Expression struct {
	// Source is the expression text without a trailing semicolon
	Source string
	// Kind is the tree-sitter node kind of the expression
	Kind string
}

// primaryKinds bind at least as tightly as member access, so they never need
// parentheses when spliced into an operator chain
var primaryKinds = map[string]bool{
	"identifier":               true,
	"member_expression":        true,
	"subscript_expression":     true,
	"call_expression":          true,
	"parenthesized_expression": true,
	"string":                   true,
	"template_string":          true,
	"this":                     true,
	"true":                     true,
	"false":                    true,
	"null":                     true,
	"undefined":                true,
	"array":                    true,
}

// IsZero reports whether e was never parsed
func (e Expression) IsZero() bool {
	return e.Source == ""
}

// Clone returns a copy that shares no storage with e
func (e Expression) Clone() Expression {
	return Expression{Source: strings.Clone(e.Source), Kind: e.Kind}
}

// Operand returns the expression text, parenthesized unless it is a primary
// expression, so it can stand as the operand of any operator.
func (e Expression) Operand() string {
	if primaryKinds[e.Kind] {
		return e.Source
	}
	return "(" + e.Source + ")"
}

// String returns the expression source
func (e Expression) String() string {
	return e.Source
}

// ParseExpression parses text as a single JavaScript expression using a
// pooled parser
func ParseExpression(text string) (Expression, error) {
	p := AcquireParser()
	defer ReleaseParser(p)
	return p.ParseExpression(text)
}

// ParseExpression parses text as a program holding exactly one expression
// statement and returns that expression. Anything else (several statements,
// declarations, a bare object literal read as a block) fails with an
// *ExpressionError.
func (p *Parser) ParseExpression(text string) (Expression, error) {
	source := []byte(text)
	tree, err := p.Parse(source)
	if err != nil {
		return Expression{}, &ExpressionError{Expression: text, Reason: "does not parse", Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	var statements []string
	var exprKind string
	var exprStart, exprEnd uint
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		statements = append(statements, child.Kind())
		if child.Kind() != "expression_statement" {
			continue
		}
		for j := uint(0); j < child.NamedChildCount(); j++ {
			expr := child.NamedChild(j)
			if expr.Kind() == "comment" {
				continue
			}
			exprKind = expr.Kind()
			exprStart, exprEnd = expr.StartByte(), expr.EndByte()
			break
		}
	}

	switch {
	case len(statements) == 0:
		return Expression{}, &ExpressionError{Expression: text, Reason: "is empty"}
	case len(statements) > 1:
		return Expression{}, &ExpressionError{Expression: text, Reason: "contains more than one statement"}
	case statements[0] != "expression_statement" || exprKind == "":
		return Expression{}, &ExpressionError{Expression: text, Reason: "is a " + strings.ReplaceAll(statements[0], "_", " ") + ", not an expression"}
	}

	return Expression{
		Source: string(source[exprStart:exprEnd]),
		Kind:   exprKind,
	}, nil
}
