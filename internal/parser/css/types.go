package css

// ReferenceKind distinguishes how a stylesheet references another file
type ReferenceKind int

const (
	// URLFunction is a url(...) value
	URLFunction ReferenceKind = iota
	// ImportRule is an @import with a bare string
	ImportRule
)

// Position represents a position in a text document
type Position struct {
	Line      uint32
	Character uint32
}

// Range represents a range in a text document
type Range struct {
	Start Position
	End   Position
}

// Reference is one file reference found in a stylesheet
type Reference struct {
	// URL is the referenced location with quotes removed
	URL   string
	Kind  ReferenceKind
	Range Range
}

// ParseResult contains the results of parsing CSS
type ParseResult struct {
	References []*Reference
}
