package transform

import (
	"bytes"
	"encoding/json"
	"strings"
)

// serializeString renders s as a JavaScript string literal that is also safe
// inside an inline <script>: <, >, & and U+2028/U+2029 are \u-escaped.
func serializeString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	// Encoding a string cannot fail
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// objectEntry is one property of a generated object literal; code is already
// valid JavaScript
type objectEntry struct {
	key  string
	code string
}

// objectLiteral renders entries in order as a JavaScript object literal
func objectLiteral(entries []objectEntry) string {
	if len(entries) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, serializeString(e.key)+": "+e.code)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
