package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidConfig indicates the configuration cannot drive a rewrite
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError represents one invalid configuration field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks that c can drive a rewrite. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.Base == "":
		errs = append(errs, &ValidationError{Field: "base", Reason: "is required"})
	case !strings.HasSuffix(c.Base, "/"):
		errs = append(errs, &ValidationError{Field: "base", Reason: fmt.Sprintf("%q must end with /", c.Base)})
	}

	if strings.TrimSpace(c.Expression) == "" {
		errs = append(errs, &ValidationError{Field: "expression", Reason: "is required"})
	}

	if c.HTML.Names != nil {
		names := c.HTML.Names
		if names.AddLinkTag == "" || names.AddLinkTagsPlaceholder == "" ||
			names.AddScriptTag == "" || names.AddScriptTagsPlaceholder == "" {
			errs = append(errs, &ValidationError{Field: "html.names", Reason: "all four names are required when any is set"})
		}
	}

	globs := []struct {
		field    string
		patterns []string
	}{
		{"patterns.code", c.Patterns.Code},
		{"patterns.markup", c.Patterns.Markup},
		{"patterns.asset", c.Patterns.Asset},
	}
	for _, g := range globs {
		for _, pattern := range g.patterns {
			if !doublestar.ValidatePattern(pattern) {
				errs = append(errs, &ValidationError{Field: g.field, Reason: fmt.Sprintf("invalid glob %q", pattern)})
			}
		}
	}

	return errors.Join(errs...)
}
