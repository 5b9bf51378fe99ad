package js_test

import (
	"errors"
	"strings"
	"testing"

	"bennypowers.dev/publicpath/internal/parser/js"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid module", func(t *testing.T) {
		parser := js.AcquireParser()
		defer js.ReleaseParser(parser)

		tree, err := parser.Parse([]byte(`import a from "./a.js"; export const b = () => a("/app/x");`))
		require.NoError(t, err)
		defer tree.Close()
		assert.Equal(t, "program", tree.RootNode().Kind())
	})

	t.Run("syntax error carries position", func(t *testing.T) {
		parser := js.AcquireParser()
		defer js.ReleaseParser(parser)

		_, err := parser.Parse([]byte("const a = 1;\nconst b = (;\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, js.ErrSyntax))

		var syntaxErr *js.SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		assert.Equal(t, uint(2), syntaxErr.Line)
	})
}

func TestParseTemplates(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		wantCount int
		wantTag   string
		wantFirst string
	}{
		{
			name:      "untagged template",
			source:    "const url = `/app/assets/${name}.js`;",
			wantCount: 1,
			wantFirst: "/app/assets/",
		},
		{
			name:      "tagged template",
			source:    "const s = css`a { background: url(/app/bg.png) }`;",
			wantCount: 1,
			wantTag:   "css",
			wantFirst: "a { background: url(/app/bg.png) }",
		},
		{
			name:      "no templates",
			source:    `const a = "/app/";`,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := js.AcquireParser()
			defer js.ReleaseParser(parser)

			regions := parser.ParseTemplates(tt.source)
			require.Len(t, regions, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}
			assert.Equal(t, tt.wantTag, regions[0].Tag)
			require.NotEmpty(t, regions[0].Segments)
			assert.Equal(t, tt.wantFirst, regions[0].Segments[0].Content)
		})
	}
}

// decode joins the values of a literal body's units
func decode(body string) (string, error) {
	units, err := js.SplitUnits(body)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, u := range units {
		b.WriteString(u.Value)
	}
	return b.String(), nil
}

func TestSplitUnitsDecodes(t *testing.T) {
	tests := []struct {
		name    string
		literal string
		want    string
	}{
		{name: "plain", literal: `"/app/x.js"`, want: "/app/x.js"},
		{name: "single quotes", literal: `'it\'s'`, want: "it's"},
		{name: "simple escapes", literal: `"a\n\t\r\b\f\v\\\""`, want: "a\n\t\r\b\f\v\\\""},
		{name: "hex escape", literal: `"\x41\x7e"`, want: "A~"},
		{name: "unicode escape", literal: `"\u1234"`, want: "\u1234"},
		{name: "braced unicode escape", literal: `"\u{1F600}"`, want: "\U0001F600"},
		{name: "surrogate pair", literal: `"\uD83D\uDE00"`, want: "\U0001F600"},
		{name: "legacy octal", literal: `"\101\0"`, want: "A\x00"},
		{name: "nul before digit eight", literal: `"\08"`, want: "\x008"},
		{name: "line continuation", literal: "\"a\\\nb\"", want: "ab"},
		{name: "identity escape", literal: `"\q"`, want: "q"},
		{name: "raw non-ascii", literal: `"héllo"`, want: "héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode(tt.literal[1 : len(tt.literal)-1])
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitUnitsErrors(t *testing.T) {
	for _, body := range []string{`\x4`, `\u12`, `\u{110000}`, `abc\`} {
		t.Run(body, func(t *testing.T) {
			_, err := js.SplitUnits(body)
			assert.ErrorIs(t, err, js.ErrSyntax)
		})
	}
}

func TestSplitUnitsKeepsRawSpelling(t *testing.T) {
	units, err := js.SplitUnits(`a\u0041\uD83D\uDE00\n`)
	require.NoError(t, err)
	require.Len(t, units, 4)

	assert.Equal(t, js.Unit{Raw: "a", Value: "a"}, units[0])
	assert.Equal(t, js.Unit{Raw: `\u0041`, Value: "A"}, units[1])
	assert.Equal(t, js.Unit{Raw: `\uD83D\uDE00`, Value: "\U0001F600"}, units[2])
	assert.Equal(t, js.Unit{Raw: `\n`, Value: "\n"}, units[3])

	var raw strings.Builder
	for _, u := range units {
		raw.WriteString(u.Raw)
	}
	assert.Equal(t, `a\u0041\uD83D\uDE00\n`, raw.String())
}

func TestSplitUnitsLoneSurrogate(t *testing.T) {
	units, err := js.SplitUnits(`\uD83Dx`)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "\xed\xa0\xbd", units[0].Value)
	assert.False(t, strings.Contains(units[0].Value, "\uFFFD"))
}
