package transform

import (
	"errors"
	"fmt"
)

// Sentinel errors for error type checking
var (
	// ErrStructure indicates a document lacks an element the transform must anchor to
	ErrStructure = errors.New("markup structure error")

	// ErrInvariant indicates content contradicts the configured base path layout
	ErrInvariant = errors.New("invariant violation")
)

// StructureError represents markup missing a required injection point
type StructureError struct {
	Reason     string
	Suggestion string
}

func (e *StructureError) Error() string {
	if e.Suggestion == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s\nSuggestion: %s", e.Reason, e.Suggestion)
}

func (e *StructureError) Unwrap() error {
	return ErrStructure
}

// NewStructureError creates a new structure error
func NewStructureError(reason, suggestion string) error {
	return &StructureError{
		Reason:     reason,
		Suggestion: suggestion,
	}
}

// InvariantViolation represents asset content referencing the base path
// outside the assets directory
type InvariantViolation struct {
	Base         string
	AssetsPrefix string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("found base path %q but not assets prefix %q, cannot derive a relative URL\nSuggestion: Check that the build's base and assets directory match the configuration",
		e.Base, e.AssetsPrefix)
}

func (e *InvariantViolation) Unwrap() error {
	return ErrInvariant
}

// NewInvariantViolation creates a new invariant violation
func NewInvariantViolation(base, assetsPrefix string) error {
	return &InvariantViolation{
		Base:         base,
		AssetsPrefix: assetsPrefix,
	}
}
