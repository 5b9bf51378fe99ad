package transform_test

import (
	"os"
	"strings"
	"testing"

	"bennypowers.dev/publicpath/internal/parser/html"
	"bennypowers.dev/publicpath/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vitePrefix = "/__public_path__/"

func dynamicOptions(t *testing.T) transform.MarkupOptions {
	return transform.MarkupOptions{
		Enabled:    true,
		Expression: mustExpression(t, "window.__publicPath"),
	}
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	return string(data)
}

func TestMarkupStaticMode(t *testing.T) {
	source := `<link rel="stylesheet" href="/app/a.css"><script src="/app/b.js"></script>`
	got, err := transform.Markup(source, "/app/", transform.MarkupOptions{
		Enabled: true,
		Target:  "https://cdn.example.com/v2/",
	})
	require.NoError(t, err)
	assert.Equal(t, `<link rel="stylesheet" href="https://cdn.example.com/v2/a.css"><script src="https://cdn.example.com/v2/b.js"></script>`, got)
}

func TestMarkupPassthrough(t *testing.T) {
	source := readFixture(t, "testdata/vite-index.html")
	got, err := transform.Markup(source, vitePrefix, transform.MarkupOptions{Enabled: false})
	require.NoError(t, err)
	assert.Equal(t, source, got)
}

func TestMarkupDynamicExtractsResourceTags(t *testing.T) {
	source := readFixture(t, "testdata/vite-index.html")
	got, err := transform.Markup(source, vitePrefix, dynamicOptions(t))
	require.NoError(t, err)

	parser := html.AcquireParser()
	defer html.ReleaseParser(parser)
	doc := parser.Parse(got)

	for _, i := range append(doc.Find("link"), doc.Find("script")...) {
		el := &doc.Elements[i]
		if el.HasAttr("data-external") {
			continue
		}
		for _, attr := range []string{"href", "src", "data-src"} {
			value, _ := el.Attr(attr)
			assert.False(t, strings.HasPrefix(value, vitePrefix), "leftover %s", got[el.Start:el.End])
		}
	}

	assert.Contains(t, got, `<script  data-external   src="/__public_path__/keep.js" ></script>`, "excluded tags are untouched")
	assert.Contains(t, got, `<script data-external src="https://analytics.example.com/a.js"></script>`)
	assert.Contains(t, got, `<script>window.__publicPath = "https://cdn.example.com/app/";</script>`)
	assert.Contains(t, got, `style="background: url(/__public_path__/assets/bg.png)"`, "inline styles are not resource tags")
	assert.NotContains(t, got, "__add_link_tags_")
	assert.NotContains(t, got, "__add_script_tags_")
}

func TestMarkupDynamicUnquotedAttributes(t *testing.T) {
	source := `<html><head><script>init()</script>` +
		`<link rel=stylesheet href=/app/a.css?x=1&amp;y=2></head><body></body></html>`
	got, err := transform.Markup(source, "/app/", transform.MarkupOptions{
		Enabled:    true,
		Expression: mustExpression(t, "base"),
	})
	require.NoError(t, err)

	assert.NotContains(t, got, "<link")
	assert.Contains(t, got, `__publicPath_addLinkTag("stylesheet", base + "a.css?x=1\u0026y=2")`)
}

func TestMarkupDynamicGeneratedCalls(t *testing.T) {
	source := readFixture(t, "testdata/vite-index.html")
	got, err := transform.Markup(source, vitePrefix, dynamicOptions(t))
	require.NoError(t, err)

	linkCalls := `__publicPath_addLinkTag("icon", window.__publicPath + "favicon.svg");` +
		`__publicPath_addLinkTag("modulepreload", window.__publicPath + "assets/vendor.91bc.js");` +
		`__publicPath_addLinkTag("stylesheet", window.__publicPath + "assets/index.77de.css")`
	assert.Contains(t, got, "    "+linkCalls+"\n")

	scriptCalls := []string{
		`__publicPath_addScriptTag({ "type": "module", "crossorigin": "", "src": window.__publicPath + "assets/index.4f2a.js" })`,
		`__publicPath_addScriptTag({ "nomodule": "" }, "!function(){var e=document.createElement(\"script\");e.src=\"x\";}();")`,
		`__publicPath_addScriptTag({ "nomodule": "", "crossorigin": "", "id": "vite-legacy-polyfill", "src": window.__publicPath + "assets/polyfills-legacy.1a2b.js" })`,
		`__publicPath_addScriptTag({ "nomodule": "", "crossorigin": "", "id": "vite-legacy-entry", "data-src": window.__publicPath + "assets/index-legacy.3c4d.js" }, "System.import(document.getElementById('vite-legacy-entry').getAttribute('data-src'))")`,
	}
	assert.Contains(t, got, "    "+strings.Join(scriptCalls, ";")+"\n")

	lastLink := strings.LastIndex(got, `__publicPath_addLinkTag("`)
	firstScript := strings.Index(got, `__publicPath_addScriptTag({`)
	assert.Less(t, lastLink, firstScript, "link tags are created before script tags")
}

func TestMarkupDynamicPlacement(t *testing.T) {
	source := readFixture(t, "testdata/vite-index.html")
	got, err := transform.Markup(source, vitePrefix, dynamicOptions(t))
	require.NoError(t, err)

	anchor := `<script>window.__publicPath = "https://cdn.example.com/app/";</script>`
	assert.Contains(t, got, anchor+"\n<script>\n  (function () {\n    function __publicPath_addLinkTag(rel, href) {")
	assert.Contains(t, got, "  })();\n</script>\n</body>")
}

func TestMarkupEscapesAttributeValues(t *testing.T) {
	source := `<html><head><script>init()</script></head><body>` +
		`<script src="/app/a.js" data-note="&quot;</script>&amp;"></script></body></html>`
	got, err := transform.Markup(source, "/app/", transform.MarkupOptions{
		Enabled:    true,
		Expression: mustExpression(t, "base"),
	})
	require.NoError(t, err)

	assert.Contains(t, got, `__publicPath_addScriptTag({ "src": base + "a.js", "data-note": "\"\u003c/script\u003e\u0026" })`)
}

func TestMarkupCustomNames(t *testing.T) {
	source := `<html><head><script>boot(); LINKS</script><link rel="stylesheet" href="/app/a.css"></head>` +
		`<body><script src="/app/b.js" defer></script><script>SCRIPTS</script></body></html>`

	got, err := transform.Markup(source, "/app/", transform.MarkupOptions{
		Enabled:    true,
		Expression: mustExpression(t, "base"),
		Names: &transform.Names{
			AddLinkTag:               "addLink",
			AddLinkTagsPlaceholder:   "LINKS",
			AddScriptTag:             "addScript",
			AddScriptTagsPlaceholder: "SCRIPTS",
		},
	})
	require.NoError(t, err)

	want := `<html><head><script>boot(); addLink("stylesheet", base + "a.css")</script></head>` +
		`<body><script>addScript({ "src": base + "b.js", "defer": "" })</script></body></html>`
	assert.Equal(t, want, got)
}

func TestMarkupConfigurableAttributes(t *testing.T) {
	source := `<html><head><script>init()</script></head><body>` +
		`<script data-main="/app/main.js" src="/app/require.js"></script>` +
		`<script skip-me src="/app/skip.js"></script></body></html>`

	got, err := transform.Markup(source, "/app/", transform.MarkupOptions{
		Enabled:            true,
		Expression:         mustExpression(t, "base"),
		LocationAttributes: []string{"src", "data-main"},
		ExcludeAttribute:   "skip-me",
	})
	require.NoError(t, err)

	assert.Contains(t, got, `__publicPath_addScriptTag({ "data-main": base + "main.js", "src": base + "require.js" })`)
	assert.Contains(t, got, `<script skip-me src="/app/skip.js"></script>`)
}

func TestMarkupStructureErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		opts   func(t *testing.T) transform.MarkupOptions
	}{
		{
			name:   "only module scripts in head",
			source: readFixture(t, "testdata/no-head-script.html"),
			opts:   dynamicOptions,
		},
		{
			name:   "no head",
			source: `<body><script src="/app/a.js"></script></body>`,
			opts:   dynamicOptions,
		},
		{
			name:   "no body",
			source: `<html><head><script>init()</script></head></html>`,
			opts:   dynamicOptions,
		},
		{
			name:   "custom placeholder missing",
			source: `<html><head><script>LINKS</script></head><body></body></html>`,
			opts: func(t *testing.T) transform.MarkupOptions {
				opts := dynamicOptions(t)
				opts.Names = &transform.Names{
					AddLinkTag:               "addLink",
					AddLinkTagsPlaceholder:   "LINKS",
					AddScriptTag:             "addScript",
					AddScriptTagsPlaceholder: "SCRIPTS",
				}
				return opts
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transform.Markup(tt.source, "/app/", tt.opts(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, transform.ErrStructure)

			var structureErr *transform.StructureError
			require.ErrorAs(t, err, &structureErr)
			assert.NotEmpty(t, structureErr.Suggestion)
		})
	}
}
