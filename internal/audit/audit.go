// Package audit reports uses of the static prefix that the transforms leave
// in place on purpose, so a build can be checked for paths that will not
// follow the runtime base.
package audit

import (
	"fmt"
	"strings"

	"bennypowers.dev/publicpath/internal/parser/css"
	"bennypowers.dev/publicpath/internal/parser/html"
	"bennypowers.dev/publicpath/internal/parser/js"
)

// Kind classifies a finding
type Kind string

const (
	// TemplateLiteral is a JavaScript template literal piece
	TemplateLiteral Kind = "template literal"
	// StylesheetURL is a CSS url() or @import reference
	StylesheetURL Kind = "stylesheet reference"
	// StyleAttribute is an inline style="..." value
	StyleAttribute Kind = "style attribute"
)

// Finding is one leftover use of the prefix. Line and Column are 0-indexed.
type Finding struct {
	Line   uint
	Column uint
	Kind   Kind
	Text   string
}

func (f Finding) String() string {
	return fmt.Sprintf("%d:%d: %s still uses the static prefix: %s", f.Line+1, f.Column+1, f.Kind, f.Text)
}

// Code reports template literal pieces containing prefix. Template literals
// can mix the prefix with substitutions, so they are never rewritten.
func Code(source, prefix string) []Finding {
	if prefix == "" || !strings.Contains(source, prefix) {
		return nil
	}

	parser := js.AcquireParser()
	defer js.ReleaseParser(parser)

	var findings []Finding
	for _, region := range parser.ParseTemplates(source) {
		for _, seg := range region.Segments {
			if !strings.Contains(seg.Content, prefix) {
				continue
			}
			findings = append(findings, Finding{
				Line:   seg.StartLine,
				Column: seg.StartCol,
				Kind:   TemplateLiteral,
				Text:   firstLine(seg.Content),
			})
		}
	}
	return findings
}

// Stylesheet reports url() and @import references starting with prefix
func Stylesheet(source, prefix string) ([]Finding, error) {
	if prefix == "" || !strings.Contains(source, prefix) {
		return nil, nil
	}

	parser := css.AcquireParser()
	defer css.ReleaseParser(parser)

	result, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, ref := range result.References {
		if !strings.HasPrefix(ref.URL, prefix) {
			continue
		}
		findings = append(findings, Finding{
			Line:   uint(ref.Range.Start.Line),
			Column: uint(ref.Range.Start.Character),
			Kind:   StylesheetURL,
			Text:   ref.URL,
		})
	}
	return findings, nil
}

// Markup reports prefixed references inside <style> elements and style
// attributes. Resource tags are the markup transform's business and are not
// inspected.
func Markup(source, prefix string) ([]Finding, error) {
	if prefix == "" || !strings.Contains(source, prefix) {
		return nil, nil
	}

	parser := html.AcquireParser()
	regions := parser.ParseCSSRegions(source)
	html.ReleaseParser(parser)

	var findings []Finding
	for _, region := range regions {
		switch region.Type {
		case html.StyleTag:
			found, err := Stylesheet(region.Content, prefix)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				if f.Line == 0 {
					f.Column += region.StartCol
				}
				f.Line += region.StartLine
				findings = append(findings, f)
			}
		case html.StyleAttribute:
			if strings.Contains(region.Content, prefix) {
				findings = append(findings, Finding{
					Line:   region.StartLine,
					Column: region.StartCol,
					Kind:   StyleAttribute,
					Text:   region.Content,
				})
			}
		}
	}
	return findings, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "..."
	}
	return s
}
