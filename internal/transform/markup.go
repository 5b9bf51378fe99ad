package transform

import (
	"fmt"
	"strings"

	"bennypowers.dev/publicpath/internal/parser/html"
	"bennypowers.dev/publicpath/internal/parser/js"
	"github.com/google/uuid"
)

const (
	// DefaultExcludeAttribute opts a resource tag out of rewriting
	DefaultExcludeAttribute = "data-external"

	defaultAddLinkTag   = "__publicPath_addLinkTag"
	defaultAddScriptTag = "__publicPath_addScriptTag"
)

// DefaultLocationAttributes are the script attributes holding a URL. Vite's
// legacy entry keeps its URL in data-src and loads it with System.import.
var DefaultLocationAttributes = []string{"src", "data-src"}

// Names are the helper function names and placeholder tokens used by the
// generated bootstrap code
type Names struct {
	AddLinkTag               string `yaml:"functionNameAddLinkTag" json:"functionNameAddLinkTag"`
	AddLinkTagsPlaceholder   string `yaml:"addLinkTagsPlaceholder" json:"addLinkTagsPlaceholder"`
	AddScriptTag             string `yaml:"functionNameAddScriptTag" json:"functionNameAddScriptTag"`
	AddScriptTagsPlaceholder string `yaml:"addScriptTagsPlaceholder" json:"addScriptTagsPlaceholder"`
}

// MarkupOptions select how Markup treats a document.
//
//   - Target set: static mode, every prefix occurrence becomes Target.
//   - Enabled false: passthrough, the document is returned unchanged.
//   - Otherwise dynamic mode: resource tags are recreated at runtime using
//     Expression. With Names nil, helper functions are injected into the
//     document; with Names set, the document must already define the helpers
//     and contain both placeholders.
type MarkupOptions struct {
	Enabled            bool
	Target             string
	Expression         js.Expression
	Names              *Names
	LocationAttributes []string
	ExcludeAttribute   string
}

// Markup rewrites an HTML document so that its resource tags no longer
// depend on prefix being the serving path
func Markup(source, prefix string, opts MarkupOptions) (string, error) {
	switch {
	case opts.Target != "":
		return strings.ReplaceAll(source, prefix, opts.Target), nil
	case !opts.Enabled:
		return source, nil
	case opts.Expression.IsZero():
		return "", &js.ExpressionError{Reason: "is empty"}
	}

	parser := html.AcquireParser()
	doc := parser.Parse(source)
	html.ReleaseParser(parser)

	m := &markupRewriter{
		doc:      doc,
		prefix:   prefix,
		expr:     opts.Expression.Clone().Operand(),
		location: opts.LocationAttributes,
		exclude:  strings.ToLower(opts.ExcludeAttribute),
	}
	if len(m.location) == 0 {
		m.location = DefaultLocationAttributes
	}
	if m.exclude == "" {
		m.exclude = DefaultExcludeAttribute
	}

	var names Names
	var es edits
	if opts.Names != nil {
		names = *opts.Names
	} else {
		names = generateNames(source)
		injected, err := m.injectBootstrap(names)
		if err != nil {
			return "", err
		}
		es = append(es, injected...)
	}

	links, scripts := m.collect()
	linkCalls := make([]string, 0, len(links))
	for _, i := range links {
		linkCalls = append(linkCalls, m.linkCall(names.AddLinkTag, &doc.Elements[i]))
		es = append(es, m.remove(i))
	}
	scriptCalls := make([]string, 0, len(scripts))
	for _, i := range scripts {
		scriptCalls = append(scriptCalls, m.scriptCall(names.AddScriptTag, &doc.Elements[i]))
		es = append(es, m.remove(i))
	}

	out := es.apply(source)
	for _, placeholder := range []string{names.AddLinkTagsPlaceholder, names.AddScriptTagsPlaceholder} {
		if n := strings.Count(out, placeholder); placeholder == "" || n != 1 {
			return "", NewStructureError(
				fmt.Sprintf("placeholder %q must appear exactly once, found %d", placeholder, n),
				"Include each placeholder once in your own bootstrap <script>, or drop the custom names to have them generated")
		}
	}

	// One pass, so generated code is never scanned for placeholders
	return strings.NewReplacer(
		names.AddLinkTagsPlaceholder, strings.Join(linkCalls, ";"),
		names.AddScriptTagsPlaceholder, strings.Join(scriptCalls, ";"),
	).Replace(out), nil
}

type markupRewriter struct {
	doc      *html.Document
	prefix   string
	expr     string
	location []string
	exclude  string
}

// generateNames picks placeholder tokens that do not occur in source. The
// suffix is a random v4 UUID, 122 bits of entropy, so the retry loop is
// practically never taken; it only guards against a document that embeds
// one of our own earlier outputs.
func generateNames(source string) Names {
	for {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
		if strings.Contains(source, suffix) {
			continue
		}
		return Names{
			AddLinkTag:               defaultAddLinkTag,
			AddLinkTagsPlaceholder:   "__add_link_tags_" + suffix + "__",
			AddScriptTag:             defaultAddScriptTag,
			AddScriptTagsPlaceholder: "__add_script_tags_" + suffix + "__",
		}
	}
}

// injectBootstrap adds the link helper after the last classic <script> in
// <head>, where the runtime expression is expected to be initialized, and
// the script helper at the end of <body>
func (m *markupRewriter) injectBootstrap(names Names) (edits, error) {
	head := m.doc.First("head")
	if head < 0 {
		return nil, NewStructureError("document has no <head> element",
			"Add a <head> containing a <script> that initializes the public path expression")
	}

	anchor := -1
	for _, i := range m.doc.Children(head, "script") {
		typ, _ := m.doc.Elements[i].Attr("type")
		if !strings.EqualFold(strings.TrimSpace(typ), "module") {
			anchor = i
		}
	}
	if anchor < 0 {
		return nil, NewStructureError("couldn't find any non-module <script> in <head>",
			fmt.Sprintf("Initialize your public path expression (%s) in a <script> in your <head>", m.expr))
	}

	body := m.doc.First("body")
	if body < 0 {
		return nil, NewStructureError("document has no <body> element",
			"Add a <body> element so recreated scripts can be appended to it")
	}

	at := m.doc.Elements[anchor].End
	end := m.doc.Elements[body].CloseStart
	return edits{
		{start: at, end: at, text: linkBootstrap(names)},
		{start: end, end: end, text: scriptBootstrap(names)},
	}, nil
}

func linkBootstrap(names Names) string {
	return "\n" +
		"<script>\n" +
		"  (function () {\n" +
		"    function " + names.AddLinkTag + "(rel, href) {\n" +
		"      var link = document.createElement(\"link\");\n" +
		"      link.rel = rel;\n" +
		"      link.href = href;\n" +
		"      document.head.appendChild(link);\n" +
		"    }\n" +
		"    " + names.AddLinkTagsPlaceholder + "\n" +
		"  })();\n" +
		"</script>\n"
}

func scriptBootstrap(names Names) string {
	return "\n" +
		"<script>\n" +
		"  (function () {\n" +
		"    function " + names.AddScriptTag + "(attributes, inlineScriptCode) {\n" +
		"      var script = document.createElement(\"script\");\n" +
		"      if (attributes) for (var key in attributes) script.setAttribute(key, attributes[key]);\n" +
		"      script.async = false;\n" +
		"      if (inlineScriptCode) script.src = \"data:text/javascript,\" + encodeURIComponent(inlineScriptCode);\n" +
		"      document.body.appendChild(script);\n" +
		"    }\n" +
		"    " + names.AddScriptTagsPlaceholder + "\n" +
		"  })();\n" +
		"</script>\n"
}

// collect returns the link and script elements to recreate, in document order
func (m *markupRewriter) collect() (links, scripts []int) {
	for _, i := range m.doc.Find("link") {
		el := &m.doc.Elements[i]
		href, _ := el.Attr("href")
		if !el.HasAttr(m.exclude) && el.HasAttr("rel") && strings.HasPrefix(href, m.prefix) {
			links = append(links, i)
		}
	}
	for _, i := range m.doc.Find("script") {
		el := &m.doc.Elements[i]
		if !el.HasAttr(m.exclude) && m.rewritesScript(el) {
			scripts = append(scripts, i)
		}
	}
	return links, scripts
}

// rewritesScript reports whether a script's URL depends on the prefix. Inline
// nomodule scripts are moved too, so they keep running in order with the
// recreated legacy scripts around them.
func (m *markupRewriter) rewritesScript(el *html.Element) bool {
	hasLocation := false
	for _, name := range m.location {
		value, ok := el.Attr(name)
		if !ok {
			continue
		}
		hasLocation = true
		if strings.HasPrefix(value, m.prefix) {
			return true
		}
	}
	return !hasLocation && el.HasAttr("nomodule")
}

func (m *markupRewriter) remove(i int) edit {
	el := &m.doc.Elements[i]
	return edit{start: el.Start, end: el.End}
}

// relocated renders a prefixed URL as runtime expression + relative rest
func (m *markupRewriter) relocated(url string) string {
	return m.expr + " + " + serializeString(strings.TrimPrefix(url, m.prefix))
}

func (m *markupRewriter) linkCall(fn string, el *html.Element) string {
	rel, _ := el.Attr("rel")
	href, _ := el.Attr("href")
	return fmt.Sprintf("%s(%s, %s)", fn, serializeString(rel), m.relocated(href))
}

func (m *markupRewriter) scriptCall(fn string, el *html.Element) string {
	entries := make([]objectEntry, 0, len(el.Attrs))
	for _, attr := range el.Attrs {
		code := serializeString(attr.Value)
		if m.isLocation(attr.Name) && strings.HasPrefix(attr.Value, m.prefix) {
			code = m.relocated(attr.Value)
		}
		entries = append(entries, objectEntry{key: attr.Name, code: code})
	}

	args := []string{objectLiteral(entries)}
	if body := strings.TrimSpace(el.Text); body != "" {
		args = append(args, serializeString(body))
	}
	return fn + "(" + strings.Join(args, ", ") + ")"
}

func (m *markupRewriter) isLocation(name string) bool {
	for _, loc := range m.location {
		if strings.EqualFold(loc, name) {
			return true
		}
	}
	return false
}
