// Package pipeline dispatches build output files to the transform matching
// their kind, one file at a time or for a whole output directory.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"bennypowers.dev/publicpath/internal/audit"
	"bennypowers.dev/publicpath/internal/config"
	"bennypowers.dev/publicpath/internal/parser/js"
	"bennypowers.dev/publicpath/internal/transform"
	"github.com/bmatcuk/doublestar/v4"
)

// Kind selects the transform a file goes through
type Kind int

const (
	// KindSkip files are left alone
	KindSkip Kind = iota
	// KindCode files are JavaScript
	KindCode
	// KindMarkup files are HTML documents
	KindMarkup
	// KindAsset files are non-executable assets such as stylesheets
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindMarkup:
		return "markup"
	case KindAsset:
		return "asset"
	default:
		return "skip"
	}
}

// Pipeline holds one build's settings. It is read-only after New and safe
// for concurrent use.
type Pipeline struct {
	cfg    config.Config
	expr   js.Expression
	markup transform.MarkupOptions
}

// New validates cfg and parses its runtime expression once for all files
func New(cfg config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	expr, err := js.ParseExpression(cfg.Expression)
	if err != nil {
		return nil, fmt.Errorf("expression: %w", err)
	}

	return &Pipeline{
		cfg:    cfg,
		expr:   expr,
		markup: cfg.MarkupOptions(expr),
	}, nil
}

// KindOf matches a slash-separated path, relative to the output directory,
// against the configured patterns. Code patterns win over markup, markup over
// asset.
func (p *Pipeline) KindOf(name string) Kind {
	name = filepath.ToSlash(name)
	switch {
	case matchesAnyPattern(name, p.cfg.Patterns.Code):
		return KindCode
	case matchesAnyPattern(name, p.cfg.Patterns.Markup):
		return KindMarkup
	case matchesAnyPattern(name, p.cfg.Patterns.Asset):
		return KindAsset
	}
	return KindSkip
}

func matchesAnyPattern(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

// Process runs the transform for kind over one file's content. Errors are
// returned as *FileError and keep the underlying error for errors.Is.
func (p *Pipeline) Process(kind Kind, name, content string) (string, error) {
	var out string
	var err error

	switch kind {
	case KindCode:
		out, err = transform.Code(content, p.cfg.Base, p.expr, p.cfg.Minify)
	case KindMarkup:
		out, err = transform.Markup(content, p.cfg.Base, p.markup)
	case KindAsset:
		out, err = transform.Asset(content, p.cfg.Base, p.cfg.AssetsDir)
	default:
		return content, nil
	}

	if err != nil {
		return "", &FileError{File: name, Stage: kind, Err: err}
	}
	return out, nil
}

// Audit lists the prefix uses left in processed content
func (p *Pipeline) Audit(kind Kind, name, content string) ([]audit.Finding, error) {
	var findings []audit.Finding
	var err error

	switch kind {
	case KindCode:
		findings = audit.Code(content, p.cfg.Base)
	case KindMarkup:
		findings, err = audit.Markup(content, p.cfg.Base)
	case KindAsset:
		if strings.EqualFold(filepath.Ext(name), ".css") {
			findings, err = audit.Stylesheet(content, p.cfg.Base)
		}
	}

	if err != nil {
		return nil, &FileError{File: name, Stage: kind, Err: err}
	}
	return findings, nil
}
