// Package config holds the build settings that drive a rewrite: the static
// base path, the runtime expression replacing it and which files to touch.
package config

import (
	"bennypowers.dev/publicpath/internal/parser/js"
	"bennypowers.dev/publicpath/internal/transform"
)

// HTMLConfig selects how HTML documents are rewritten
type HTMLConfig struct {
	// Enabled turns markup rewriting on. When false, documents keep the
	// static base and the host is expected to resolve it another way.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Target, when set, statically replaces the base everywhere in markup
	// Example: "https://cdn.example.com/v2/"
	Target string `yaml:"target,omitempty" json:"target,omitempty"`

	// Names lets the document provide its own helper functions and
	// placeholders instead of the generated bootstrap
	Names *transform.Names `yaml:"names,omitempty" json:"names,omitempty"`

	// LocationAttributes are the script attributes holding a URL
	// Default: ["src", "data-src"]
	LocationAttributes []string `yaml:"locationAttributes" json:"locationAttributes"`

	// ExcludeAttribute marks a tag that must be left untouched
	// Default: "data-external"
	ExcludeAttribute string `yaml:"excludeAttribute" json:"excludeAttribute"`
}

// Patterns are doublestar globs, relative to the output directory, deciding
// which transform a file gets. A file matching none is skipped.
type Patterns struct {
	Code   []string `yaml:"code" json:"code"`
	Markup []string `yaml:"markup" json:"markup"`
	Asset  []string `yaml:"asset" json:"asset"`
}

// Config represents a publicpath build configuration
type Config struct {
	// Base is the static base path the bundle was built with
	// Example: "/__public_path__/"
	Base string `yaml:"base" json:"base"`

	// AssetsDir is the directory, relative to Base, emitted assets live in
	AssetsDir string `yaml:"assetsDir" json:"assetsDir"`

	// Expression is the JavaScript expression computing the base at runtime
	// Example: "window.__publicPath"
	Expression string `yaml:"expression" json:"expression"`

	// Minify whitespace-minifies JavaScript that contains the base
	Minify bool `yaml:"minify" json:"minify"`

	HTML     HTMLConfig `yaml:"html" json:"html"`
	Patterns Patterns   `yaml:"patterns" json:"patterns"`
}

// DefaultConfig returns the default configuration. Base and Expression are
// build-specific and have no default.
func DefaultConfig() Config {
	return Config{
		AssetsDir: "assets",
		HTML: HTMLConfig{
			Enabled:            true,
			LocationAttributes: append([]string(nil), transform.DefaultLocationAttributes...),
			ExcludeAttribute:   transform.DefaultExcludeAttribute,
		},
		Patterns: Patterns{
			Code:   []string{"**/*.{js,mjs,cjs}"},
			Markup: []string{"**/*.html"},
			Asset:  []string{"**/*.{css,svg,json,webmanifest}"},
		},
	}
}

// MarkupOptions converts the HTML settings into transform options using an
// already parsed expression
func (c *Config) MarkupOptions(expr js.Expression) transform.MarkupOptions {
	return transform.MarkupOptions{
		Enabled:            c.HTML.Enabled,
		Target:             c.HTML.Target,
		Expression:         expr,
		Names:              c.HTML.Names,
		LocationAttributes: c.HTML.LocationAttributes,
		ExcludeAttribute:   c.HTML.ExcludeAttribute,
	}
}
