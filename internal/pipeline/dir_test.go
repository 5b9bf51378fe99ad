package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/publicpath/internal/pipeline"
	"bennypowers.dev/publicpath/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func readTree(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func TestProcessDir(t *testing.T) {
	files := map[string]string{
		"index.html": `<html><head><script>window.base = "/x/"</script>` +
			`<link rel="stylesheet" href="/app/assets/index.css"></head>` +
			`<body><script type="module" src="/app/assets/index.js"></script></body></html>`,
		"assets/index.js":       "export const logo = \"/app/assets/logo.svg\";\nexport const t = `/app/${x}`;\n",
		"assets/index.css":      `.a{background:url(/app/assets/logo.svg)}`,
		"assets/logo.svg":       `<svg xmlns="http://www.w3.org/2000/svg"/>`,
		"README.txt":            "served from /app/",
		"node_modules/pkg/a.js": `f("/app/")`,
		".vite/manifest.json":   `{"index.html":{"file":"/app/x"}}`,
	}
	root := writeTree(t, files)

	report, err := newPipeline(t).ProcessDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"assets/index.css", "assets/index.js", "index.html"}, report.Changed)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "assets/index.js", report.Warnings[0].File)
	assert.Equal(t, uint(1), report.Warnings[0].Finding.Line)

	assert.Equal(t, "export const logo = window.base + \"assets/logo.svg\";\nexport const t = `/app/${x}`;\n",
		readTree(t, root, "assets/index.js"))
	assert.Equal(t, `.a{background:url(logo.svg)}`, readTree(t, root, "assets/index.css"))
	assert.Contains(t, readTree(t, root, "index.html"), `__publicPath_addLinkTag("stylesheet", window.base + "assets/index.css")`)

	for _, untouched := range []string{"assets/logo.svg", "README.txt", "node_modules/pkg/a.js", ".vite/manifest.json"} {
		assert.Equal(t, files[untouched], readTree(t, root, untouched), untouched)
	}
}

func TestProcessDirFailureWritesNothing(t *testing.T) {
	files := map[string]string{
		"a.js":        `f("/app/a.js")`,
		"b.css":       `.b{background:url(/app/b.png)}`,
		"c/theme.css": `.c{background:url(/app/assets/c.png)}`,
	}
	root := writeTree(t, files)

	_, err := newPipeline(t).ProcessDir(context.Background(), root)
	require.Error(t, err)
	assert.ErrorIs(t, err, transform.ErrInvariant)

	var fileErr *pipeline.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, "b.css", fileErr.File)

	for name, content := range files {
		assert.Equal(t, content, readTree(t, root, name), name)
	}
}

func TestProcessDirCanceled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.js": `f("/app/a.js")`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(t).ProcessDir(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, `f("/app/a.js")`, readTree(t, root, "a.js"))
}

func TestProcessDirMissingRoot(t *testing.T) {
	_, err := newPipeline(t).ProcessDir(context.Background(), filepath.Join(t.TempDir(), "dist"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
