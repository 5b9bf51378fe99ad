package html

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	nethtml "golang.org/x/net/html"
)

// Parser builds Document indexes from HTML source. Parsing is tolerant:
// malformed markup still yields a document.
type Parser struct {
	parser *sitter.Parser
}

var htmlLang = sitter.NewLanguage(tree_sitter_html.Language())

// parserPool is a pool of reusable HTML parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(htmlLang); err != nil {
			panic(fmt.Sprintf("failed to set HTML language: %v", err))
		}
		return &Parser{parser: parser}
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
}

// Parse indexes every element of source. The syntax tree is released before
// returning; only byte offsets into source are kept.
func (p *Parser) Parse(source string) *Document {
	doc := &Document{Source: source}
	sourceBytes := []byte(source)
	tree := p.parser.Parse(sourceBytes, nil)
	if tree == nil {
		return doc
	}
	defer tree.Close()

	collectElements(tree.RootNode(), sourceBytes, -1, doc)
	return doc
}

// collectElements walks the tree in document order, appending every element
// with the index of its nearest element ancestor
func collectElements(node *sitter.Node, source []byte, parent int, doc *Document) {
	switch node.Kind() {
	case "element", "script_element", "style_element":
		idx := len(doc.Elements)
		doc.Elements = append(doc.Elements, buildElement(node, source, parent))
		parent = idx
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		collectElements(node.Child(i), source, parent, doc)
	}
}

func buildElement(node *sitter.Node, source []byte, parent int) Element {
	el := Element{
		Parent:     parent,
		Start:      node.StartByte(),
		End:        node.EndByte(),
		CloseStart: node.EndByte(),
	}

	closed := false
	tagEnd := node.StartByte()
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "start_tag", "self_closing_tag":
			tagEnd = readTag(child, source, &el)
		case "end_tag":
			closed = true
			el.CloseStart = child.StartByte()
		case "raw_text":
			el.Text = string(source[child.StartByte():child.EndByte()])
		}
	}

	// Recovery can end an unclosed element inside its own start tag
	if !closed && tagEnd > el.End {
		el.End = tagEnd
		el.CloseStart = tagEnd
	}
	return el
}

// readTag fills the tag name and attributes from a start tag and returns the
// offset just past it. The tag is tokenized as browsers read it, so unquoted
// values holding = or character references come back whole and unescaped.
// Duplicate attributes are dropped, as browsers keep the first occurrence.
func readTag(tag *sitter.Node, source []byte, el *Element) uint {
	// The tokenizer cannot tell a="" from a bare a
	valued := make(map[string]bool)
	for i := uint(0); i < tag.ChildCount(); i++ {
		switch child := tag.Child(i); child.Kind() {
		case "tag_name":
			el.Tag = strings.ToLower(string(source[child.StartByte():child.EndByte()]))
		case "attribute":
			if child.ChildCount() > 1 {
				name := child.Child(0)
				valued[strings.ToLower(string(source[name.StartByte():name.EndByte()]))] = true
			}
		}
	}

	// A tag cut off by the end of input is not a start tag to the tokenizer
	z := nethtml.NewTokenizer(bytes.NewReader(source[tag.StartByte():]))
	if tt := z.Next(); tt != nethtml.StartTagToken && tt != nethtml.SelfClosingTagToken {
		return tag.EndByte()
	}
	end := tag.StartByte() + uint(len(z.Raw())) //nolint:gosec // G115: token length is bounded by the source

	name, more := z.TagName()
	el.Tag = string(name)
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		attr := Attribute{
			Name:     string(key),
			Value:    string(val),
			HasValue: len(val) > 0 || valued[string(key)],
		}
		if attr.Name != "" && !el.HasAttr(attr.Name) {
			el.Attrs = append(el.Attrs, attr)
		}
	}
	return end
}

// ParseCSSRegions extracts CSS regions from HTML source: <style> bodies and
// style="..." attribute values
func (p *Parser) ParseCSSRegions(source string) []CSSRegion {
	doc := p.Parse(source)
	var regions []CSSRegion

	for i := range doc.Elements {
		el := &doc.Elements[i]
		if el.Tag == "style" && el.Text != "" {
			offset := strings.Index(source[el.Start:el.End], el.Text)
			line, col := lineCol(source, int(el.Start)+max(offset, 0))
			regions = append(regions, CSSRegion{
				Content:   el.Text,
				StartLine: line,
				StartCol:  col,
				Type:      StyleTag,
			})
		}
		if style, ok := el.Attr("style"); ok && style != "" {
			line, col := lineCol(source, int(el.Start))
			regions = append(regions, CSSRegion{
				Content:   style,
				StartLine: line,
				StartCol:  col,
				Type:      StyleAttribute,
			})
		}
	}

	return regions
}

// lineCol converts a byte offset to a 0-indexed line and byte column
func lineCol(source string, offset int) (uint, uint) {
	before := source[:offset]
	line := strings.Count(before, "\n")
	col := offset - (strings.LastIndexByte(before, '\n') + 1)
	return uint(line), uint(col) //nolint:gosec // G115: offsets are bounded by the source length
}
