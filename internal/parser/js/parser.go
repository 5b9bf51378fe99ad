package js

import (
	"fmt"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// Parser wraps a tree-sitter JavaScript parser. A Parser is not safe for
// concurrent use; take one from the pool per call.
type Parser struct {
	parser        *sitter.Parser
	templateQuery *sitter.Query
}

var jsLang = sitter.NewLanguage(tree_sitter_javascript.Language())

// parserPool is a pool of reusable JS parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(jsLang); err != nil {
			panic(fmt.Sprintf("failed to set JS language: %v", err))
		}

		templateQuery, qerr := sitter.NewQuery(jsLang, `(template_string) @template`)
		if qerr != nil {
			panic(fmt.Sprintf("failed to compile template query: %v", qerr))
		}

		return &Parser{
			parser:        parser,
			templateQuery: templateQuery,
		}
	},
}

// AcquireParser gets a parser from the pool
func AcquireParser() *Parser {
	p := parserPool.Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// Close closes the parser and releases its resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
	if p.templateQuery != nil {
		p.templateQuery.Close()
	}
}

// Parse parses source into a syntax tree. Tree-sitter recovers from errors,
// but a tree containing ERROR or MISSING nodes is rejected with a
// *SyntaxError so callers never rewrite a partially understood program.
// The caller owns the returned tree and must Close it.
func (p *Parser) Parse(source []byte) (*sitter.Tree, error) {
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil, &SyntaxError{Reason: "parser produced no tree"}
	}

	root := tree.RootNode()
	if root.HasError() {
		err := syntaxErrorAt(root, source)
		tree.Close()
		return nil, err
	}

	return tree, nil
}

// syntaxErrorAt describes the first ERROR or MISSING node under root
func syntaxErrorAt(root *sitter.Node, source []byte) *SyntaxError {
	node := firstErrorNode(root)
	if node == nil {
		return &SyntaxError{Reason: "unrecognized syntax"}
	}

	pos := node.StartPosition()
	err := &SyntaxError{Line: pos.Row + 1, Column: pos.Column + 1}
	if node.IsMissing() {
		err.Reason = fmt.Sprintf("missing %s", node.Kind())
		return err
	}

	near := string(source[node.StartByte():node.EndByte()])
	if idx := strings.IndexByte(near, '\n'); idx >= 0 {
		near = near[:idx]
	}
	if len(near) > 40 {
		near = near[:40] + "..."
	}
	err.Reason = fmt.Sprintf("unexpected %q", near)
	return err
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}

// ParseTemplates finds every template literal and splits it at ${...}
// boundaries. Tagged templates carry their tag name. Unparseable sources yield
// no regions.
func (p *Parser) ParseTemplates(source string) []TemplateRegion {
	sourceBytes := []byte(source)
	tree := p.parser.Parse(sourceBytes, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	var regions []TemplateRegion
	matches := cursor.Matches(p.templateQuery, tree.RootNode(), sourceBytes)
	for match := matches.Next(); match != nil; match = matches.Next() {
		for _, capture := range match.Captures {
			templateNode := capture.Node
			segments := extractSegments(&templateNode, sourceBytes)
			if len(segments) == 0 {
				continue
			}
			regions = append(regions, TemplateRegion{
				Segments: segments,
				Tag:      templateTag(&templateNode, sourceBytes),
			})
		}
	}

	return regions
}

// templateTag returns the identifier tagging a template, if any
func templateTag(templateNode *sitter.Node, sourceBytes []byte) string {
	parent := templateNode.Parent()
	if parent == nil || parent.Kind() != "call_expression" {
		return ""
	}
	fn := parent.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return ""
	}
	return string(sourceBytes[fn.StartByte():fn.EndByte()])
}

// extractSegments splits a template_string node into literal text segments
// (string_fragment nodes), skipping ${...} substitutions
func extractSegments(templateNode *sitter.Node, sourceBytes []byte) []Segment {
	var segments []Segment

	for i := uint(0); i < templateNode.ChildCount(); i++ {
		child := templateNode.Child(i)
		if child.Kind() == "string_fragment" {
			content := string(sourceBytes[child.StartByte():child.EndByte()])
			segments = append(segments, Segment{
				Content:   content,
				StartLine: child.StartPosition().Row,
				StartCol:  child.StartPosition().Column,
			})
		}
	}

	return segments
}
