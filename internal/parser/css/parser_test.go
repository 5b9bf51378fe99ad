package css_test

import (
	"testing"

	"bennypowers.dev/publicpath/internal/parser/css"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseURLReferences tests url() values in declarations
func TestParseURLReferences(t *testing.T) {
	cssCode := `.hero {
  background: url(/app/assets/hero.png) no-repeat;
}
@font-face {
  src: url("/app/assets/inter.woff2") format("woff2"), url('fallback.woff');
}`

	parser := css.AcquireParser()
	defer css.ReleaseParser(parser)
	result, err := parser.Parse(cssCode)
	require.NoError(t, err)

	urls := make([]string, 0, len(result.References))
	for _, ref := range result.References {
		assert.Equal(t, css.URLFunction, ref.Kind)
		urls = append(urls, ref.URL)
	}
	assert.Equal(t, []string{"/app/assets/hero.png", "/app/assets/inter.woff2", "fallback.woff"}, urls)

	assert.Equal(t, uint32(1), result.References[0].Range.Start.Line, "first url on line 1 (0-indexed)")
	assert.Greater(t, result.References[0].Range.Start.Character, uint32(0))
}

// TestParseImportReferences tests both @import forms
func TestParseImportReferences(t *testing.T) {
	cssCode := `@import "/app/assets/base.css";
@import url(/app/assets/theme.css);
body { color: red; }`

	parser := css.AcquireParser()
	defer css.ReleaseParser(parser)
	result, err := parser.Parse(cssCode)
	require.NoError(t, err)

	byURL := map[string]css.ReferenceKind{}
	for _, ref := range result.References {
		byURL[ref.URL] = ref.Kind
	}
	assert.Equal(t, map[string]css.ReferenceKind{
		"/app/assets/base.css":  css.ImportRule,
		"/app/assets/theme.css": css.URLFunction,
	}, byURL)
}

// TestParseNoReferences tests CSS without references
func TestParseNoReferences(t *testing.T) {
	parser := css.AcquireParser()
	defer css.ReleaseParser(parser)
	result, err := parser.Parse(`:root { --gap: 8px; } a { color: var(--link); }`)
	require.NoError(t, err)
	assert.Empty(t, result.References)
}
