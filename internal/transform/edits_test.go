package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditsApply(t *testing.T) {
	source := "<head><script></script></head>"
	es := edits{
		{start: 23, end: 23, text: "<b>"},
		{start: 6, end: 23, text: ""},
		{start: 6, end: 6, text: "<a>"},
	}
	assert.Equal(t, "<head><a><b></head>", es.apply(source))
	assert.Equal(t, source, edits(nil).apply(source))
}

func TestSerializeString(t *testing.T) {
	assert.Equal(t, `"a\"b"`, serializeString(`a"b`))
	assert.Equal(t, `"\u003c/script\u003e"`, serializeString("</script>"))
	assert.Equal(t, `"\u2028"`, serializeString(string(rune(0x2028))))
}

func TestObjectLiteral(t *testing.T) {
	assert.Equal(t, "{}", objectLiteral(nil))
	assert.Equal(t, `{ "src": x + "a.js", "defer": "" }`, objectLiteral([]objectEntry{
		{key: "src", code: `x + "a.js"`},
		{key: "defer", code: `""`},
	}))
}
