package transform

import (
	"sort"
	"strings"

	"bennypowers.dev/publicpath/internal/parser/js"
	"github.com/evanw/esbuild/pkg/api"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Code rewrites every JavaScript string literal whose value contains prefix
// into a concatenation of the literal's remaining pieces and expr, so the
// prefix is computed at runtime. Template literals, comments and identifiers
// are left alone. Sources without the prefix are returned as is without
// parsing. With minify set, every parsed source is whitespace-minified, even
// when no literal needed rewriting.
func Code(source, prefix string, expr js.Expression, minify bool) (string, error) {
	if prefix == "" || !strings.Contains(source, prefix) {
		return source, nil
	}
	if expr.IsZero() {
		return "", &js.ExpressionError{Reason: "is empty"}
	}

	parser := js.AcquireParser()
	defer js.ReleaseParser(parser)

	sourceBytes := []byte(source)
	tree, err := parser.Parse(sourceBytes)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	r := &literalRewriter{
		source: sourceBytes,
		prefix: prefix,
		expr:   expr,
	}
	if err := r.walk(tree.RootNode(), nil); err != nil {
		return "", err
	}

	out := source
	if len(r.edits) > 0 {
		out = r.edits.apply(source)
	}
	if minify {
		return minifyWhitespace(out)
	}
	return out, nil
}

type literalRewriter struct {
	source []byte
	prefix string
	expr   js.Expression
	edits  edits
}

// literalParents hold strings that must stay literal. JSX attribute text has
// no backslash escapes, so it cannot be split like a JavaScript string.
var literalParents = map[string]bool{
	"import_specifier":      true,
	"export_specifier":      true,
	"namespace_export":      true,
	"namespace_import":      true,
	"import_attribute":      true,
	"import_require_clause": true,
	"jsx_attribute":         true,
}

// statementLists hold statements back to back, so an expression statement
// opening with ( or [ would continue the one before it
var statementLists = map[string]bool{
	"program":         true,
	"statement_block": true,
	"switch_case":     true,
	"switch_default":  true,
}

// keyFields maps node kinds whose string child may be a property name to the
// field holding that name
var keyFields = map[string]string{
	"pair":              "key",
	"pair_pattern":      "key",
	"method_definition": "name",
	"field_definition":  "property",
}

// looseParents bind no tighter than +, so a concatenation placed directly
// inside them needs no parentheses
var looseParents = map[string]bool{
	"arguments":                       true,
	"array":                           true,
	"expression_statement":            true,
	"export_statement":                true,
	"variable_declarator":             true,
	"assignment_expression":           true,
	"augmented_assignment_expression": true,
	"pair":                            true,
	"return_statement":                true,
	"throw_statement":                 true,
	"parenthesized_expression":        true,
	"sequence_expression":             true,
	"spread_element":                  true,
	"arrow_function":                  true,
	"template_substitution":           true,
	"jsx_expression":                  true,
	"ternary_expression":              true,
	"yield_expression":                true,
	"computed_property_name":          true,
	"assignment_pattern":              true,
	"field_definition":                true,
}

func (r *literalRewriter) walk(node, parent *sitter.Node) error {
	switch node.Kind() {
	case "string":
		return r.rewriteString(node, parent)
	case "comment", "regex":
		return nil
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		if err := r.walk(node.Child(i), node); err != nil {
			return err
		}
	}
	return nil
}

func (r *literalRewriter) rewriteString(node, parent *sitter.Node) error {
	if isModuleName(node, parent) {
		return nil
	}

	literal := string(r.source[node.StartByte():node.EndByte()])
	// A prefix spelled with escapes only shows up after decoding
	if !strings.Contains(literal, r.prefix) && !strings.ContainsRune(literal, '\\') {
		return nil
	}
	if len(literal) < 2 {
		return nil
	}

	quote := literal[:1]
	units, err := js.SplitUnits(literal[1 : len(literal)-1])
	if err != nil {
		return err
	}

	fragments := splitFragments(units, r.prefix)
	if len(fragments) == 1 {
		return nil
	}

	operands := make([]string, 0, 2*len(fragments)-1)
	for i, f := range fragments {
		if f.value != "" {
			operands = append(operands, quote+f.raw+quote)
		}
		if i < len(fragments)-1 {
			operands = append(operands, r.expr.Clone().Operand())
		}
	}
	if len(operands) == 0 {
		return nil
	}

	replacement := strings.Join(operands, " + ")
	switch {
	case isPropertyName(node, parent):
		replacement = "[" + replacement + "]"
	case len(operands) > 1 && !chainFitsIn(node, parent, r.source):
		replacement = "(" + replacement + ")"
	}

	text := r.separate(replacement, node.StartByte(), node.EndByte())
	if strings.ContainsRune("([`", rune(text[0])) && continuesStatement(node) {
		text = ";" + text
	}

	r.edits = append(r.edits, edit{
		start: node.StartByte(),
		end:   node.EndByte(),
		text:  text,
	})
	return nil
}

// isModuleName reports whether node names a module or sits in an import or
// export clause. An export default value is an ordinary expression.
func isModuleName(node, parent *sitter.Node) bool {
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "import_statement", "export_statement":
		source := parent.ChildByFieldName("source")
		return source != nil && source.StartByte() == node.StartByte() && source.EndByte() == node.EndByte()
	}
	return literalParents[parent.Kind()]
}

// continuesStatement reports whether node is the first token of an
// expression statement that follows another statement in the same list.
// Without a semicolon, automatic semicolon insertion would not split them.
func continuesStatement(node *sitter.Node) bool {
	stmt := node
	for stmt.Kind() != "expression_statement" {
		parent := stmt.Parent()
		if parent == nil || parent.StartByte() != node.StartByte() {
			return false
		}
		stmt = parent
	}
	list := stmt.Parent()
	if list == nil || !statementLists[list.Kind()] {
		return false
	}
	return stmt.PrevNamedSibling() != nil
}

// separate pads text with spaces where it would otherwise fuse with an
// adjacent identifier, as in minified `return"/base/"`
func (r *literalRewriter) separate(text string, start, end uint) string {
	if start > 0 && isIdentByte(r.source[start-1]) && isIdentByte(text[0]) {
		text = " " + text
	}
	if int(end) < len(r.source) && isIdentByte(r.source[end]) && isIdentByte(text[len(text)-1]) {
		text += " "
	}
	return text
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// isPropertyName reports whether node is used as a property key, which must
// become a computed key once it is an expression
func isPropertyName(node, parent *sitter.Node) bool {
	if parent == nil {
		return false
	}
	field, ok := keyFields[parent.Kind()]
	if !ok {
		return false
	}
	key := parent.ChildByFieldName(field)
	return key != nil && key.StartByte() == node.StartByte() && key.EndByte() == node.EndByte()
}

// chainFitsIn reports whether an unparenthesized a + b chain can replace node
// without changing how its parent groups operands
func chainFitsIn(node, parent *sitter.Node, source []byte) bool {
	if parent == nil {
		return false
	}

	switch kind := parent.Kind(); kind {
	case "binary_expression":
		op := parent.ChildByFieldName("operator")
		if op == nil {
			return false
		}
		switch string(source[op.StartByte():op.EndByte()]) {
		case "+":
			left := parent.ChildByFieldName("left")
			return left != nil && left.StartByte() == node.StartByte()
		case "-", "*", "/", "%", "**":
			return false
		}
		return true
	case "subscript_expression":
		index := parent.ChildByFieldName("index")
		return index != nil && index.StartByte() == node.StartByte()
	default:
		return looseParents[kind]
	}
}

type fragment struct {
	raw   string
	value string
}

// splitFragments cuts a literal body at every occurrence of prefix in its
// decoded value. Cuts fall between units, so each fragment keeps its
// original spelling. The result always has occurrences+1 entries.
func splitFragments(units []js.Unit, prefix string) []fragment {
	var value strings.Builder
	offsets := make([]int, len(units)+1)
	for i, u := range units {
		offsets[i] = value.Len()
		value.WriteString(u.Value)
	}
	offsets[len(units)] = value.Len()
	decoded := value.String()

	// unitAt finds the first unit starting at byte offset off of the decoded value
	unitAt := func(off int) (int, bool) {
		i := sort.SearchInts(offsets, off)
		return i, i < len(offsets) && offsets[i] == off
	}

	var fragments []fragment
	from := 0 // unit index where the current fragment starts
	for search := 0; search <= len(decoded)-len(prefix); {
		idx := strings.Index(decoded[search:], prefix)
		if idx < 0 {
			break
		}
		matchStart := search + idx
		startUnit, okStart := unitAt(matchStart)
		endUnit, okEnd := unitAt(matchStart + len(prefix))
		if !okStart || !okEnd {
			search = matchStart + 1
			continue
		}
		fragments = append(fragments, joinUnits(units[from:startUnit]))
		from = endUnit
		search = matchStart + len(prefix)
	}

	return append(fragments, joinUnits(units[from:]))
}

func joinUnits(units []js.Unit) fragment {
	var raw, value strings.Builder
	for _, u := range units {
		raw.WriteString(u.Raw)
		value.WriteString(u.Value)
	}
	return fragment{raw: raw.String(), value: value.String()}
}

// minifyWhitespace reprints code without insignificant whitespace
func minifyWhitespace(code string) (string, error) {
	result := api.Transform(code, api.TransformOptions{
		Loader:           api.LoaderJS,
		MinifyWhitespace: true,
		Charset:          api.CharsetUTF8,
		LegalComments:    api.LegalCommentsInline,
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		syntaxErr := &js.SyntaxError{Reason: "minify: " + msg.Text}
		if msg.Location != nil {
			syntaxErr.Line = uint(msg.Location.Line)         //nolint:gosec // G115: esbuild lines are positive
			syntaxErr.Column = uint(msg.Location.Column + 1) //nolint:gosec // G115: esbuild columns are non-negative
		}
		return "", syntaxErr
	}
	return string(result.Code), nil
}
