package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"bennypowers.dev/publicpath/internal/audit"
	"bennypowers.dev/publicpath/internal/log"
	"golang.org/x/sync/errgroup"
)

// Warning is an audit finding in one file
type Warning struct {
	File    string
	Finding audit.Finding
}

func (w Warning) String() string {
	return w.File + ":" + w.Finding.String()
}

// Report summarizes a directory pass
type Report struct {
	// Changed lists rewritten files, relative to the root, in walk order
	Changed  []string
	Skipped  int
	Warnings []Warning
}

type fileResult struct {
	changed  bool
	content  string
	mode     fs.FileMode
	findings []audit.Finding
}

// ProcessDir rewrites every matching file under root in place. Files are
// transformed concurrently and written only once all of them succeeded, so a
// failing file leaves the whole directory untouched. The first error cancels
// the remaining work and is returned.
func (p *Pipeline) ProcessDir(ctx context.Context, root string) (Report, error) {
	var report Report

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldSkipDirectory(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if p.KindOf(rel) == KindSkip {
			report.Skipped++
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return report, err
	}

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.processFile(root, rel)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	for i, rel := range files {
		res := results[i]
		for _, f := range res.findings {
			w := Warning{File: rel, Finding: f}
			log.Warn("%s", w)
			report.Warnings = append(report.Warnings, w)
		}
		if !res.changed {
			continue
		}
		if err := os.WriteFile(filepath.Join(root, filepath.FromSlash(rel)), []byte(res.content), res.mode); err != nil {
			return report, err
		}
		log.Debug("Rewrote %s", rel)
		report.Changed = append(report.Changed, rel)
	}

	log.Info("Rewrote %d of %d files (%d skipped, %d warnings)",
		len(report.Changed), len(files), report.Skipped, len(report.Warnings))
	return report, nil
}

func (p *Pipeline) processFile(root, rel string) (fileResult, error) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return fileResult{}, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: walking the build output directory
	if err != nil {
		return fileResult{}, err
	}

	kind := p.KindOf(rel)
	content := string(data)
	out, err := p.Process(kind, rel, content)
	if err != nil {
		return fileResult{}, err
	}
	findings, err := p.Audit(kind, rel, out)
	if err != nil {
		return fileResult{}, err
	}

	return fileResult{
		changed:  out != content,
		content:  out,
		mode:     info.Mode().Perm(),
		findings: findings,
	}, nil
}

// shouldSkipDirectory reports whether a directory is never build output:
// hidden directories and installed dependencies
func shouldSkipDirectory(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return slices.Contains([]string{"node_modules"}, name)
}
