package css

import (
	"fmt"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
)

// Parser handles parsing CSS with tree-sitter
type Parser struct {
	parser *sitter.Parser
}

var cssLang = sitter.NewLanguage(tree_sitter_css.Language())

// parserPool is a pool of reusable CSS parsers
var parserPool = sync.Pool{
	New: func() any {
		return NewParser()
	},
}

// NewParser creates a new CSS parser
func NewParser() *Parser {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(cssLang); err != nil {
		panic(fmt.Sprintf("failed to set CSS language: %v", err))
	}

	return &Parser{
		parser: parser,
	}
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
}

// Parse parses CSS code and extracts url() values and @import strings
func (p *Parser) Parse(source string) (*ParseResult, error) {
	sourceBytes := []byte(source)
	tree := p.parser.Parse(sourceBytes, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse CSS")
	}
	defer tree.Close()

	result := &ParseResult{
		References: []*Reference{},
	}

	p.walkTree(tree.RootNode(), sourceBytes, result)

	return result, nil
}

// walkTree recursively walks the tree to find file references
func (p *Parser) walkTree(node *sitter.Node, source []byte, result *ParseResult) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "call_expression":
		p.handleCallExpression(node, source, result)
	case "import_statement":
		p.handleImportStatement(node, source, result)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		p.walkTree(node.Child(i), source, result)
	}
}

// handleCallExpression records url(...) calls. The argument text is taken
// verbatim because unquoted URLs do not always lex as a single value.
func (p *Parser) handleCallExpression(node *sitter.Node, source []byte, result *ParseResult) {
	var functionNameNode *sitter.Node
	var argumentsNode *sitter.Node

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "function_name":
			functionNameNode = child
		case "arguments":
			argumentsNode = child
		}
	}

	if functionNameNode == nil || argumentsNode == nil {
		return
	}

	functionName := string(source[functionNameNode.StartByte():functionNameNode.EndByte()])
	if !strings.EqualFold(functionName, "url") {
		return
	}

	args := string(source[argumentsNode.StartByte():argumentsNode.EndByte()])
	args = strings.TrimSuffix(strings.TrimPrefix(args, "("), ")")
	url := unquote(strings.TrimSpace(args))
	if url == "" {
		return
	}

	result.References = append(result.References, &Reference{
		URL:   url,
		Kind:  URLFunction,
		Range: nodeRange(node),
	})
}

// handleImportStatement records @import "file.css"; the url() form is picked
// up by handleCallExpression
func (p *Parser) handleImportStatement(node *sitter.Node, source []byte, result *ParseResult) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "string_value" {
			continue
		}
		url := unquote(string(source[child.StartByte():child.EndByte()]))
		if url == "" {
			continue
		}
		result.References = append(result.References, &Reference{
			URL:   url,
			Kind:  ImportRule,
			Range: nodeRange(child),
		})
	}
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func nodeRange(node *sitter.Node) Range {
	return Range{
		Start: Position{
			Line:      uint32(node.StartPosition().Row),    //nolint:gosec // G115: tree-sitter positions are bounded by file size
			Character: uint32(node.StartPosition().Column), //nolint:gosec // G115: tree-sitter positions are bounded by file size
		},
		End: Position{
			Line:      uint32(node.EndPosition().Row),    //nolint:gosec // G115: tree-sitter positions are bounded by file size
			Character: uint32(node.EndPosition().Column), //nolint:gosec // G115: tree-sitter positions are bounded by file size
		},
	}
}
