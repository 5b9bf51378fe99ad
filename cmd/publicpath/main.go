package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bennypowers.dev/publicpath/internal/config"
	"bennypowers.dev/publicpath/internal/log"
	"bennypowers.dev/publicpath/internal/pipeline"
	"bennypowers.dev/publicpath/internal/version"
	"github.com/alecthomas/kong"
)

// CLI rewrites a build output directory in place. Flags override values
// from the configuration file.
type CLI struct {
	Config     string           `short:"c" help:"Configuration file (YAML, or JSON with comments). Defaults to package.json#publicPath or .config/publicpath.yaml" type:"existingfile"`
	Base       string           `short:"b" help:"Static base path the bundle was built with, e.g. /__public_path__/"`
	Expression string           `short:"e" help:"JavaScript expression computing the base at runtime, e.g. window.__publicPath"`
	AssetsDir  string           `name:"assets-dir" help:"Assets directory relative to the base"`
	Target     string           `help:"Statically replace the base in HTML with this URL instead of generating bootstrap code"`
	NoHTML     bool             `name:"no-html" help:"Leave HTML documents untouched"`
	Minify     bool             `help:"Whitespace-minify rewritten JavaScript"`
	LogLevel   string           `name:"log-level" help:"Log level (${enum})" enum:"debug,info,warn,error" default:"info"`
	Verbose    bool             `short:"v" help:"Enable debug logging (same as --log-level=debug)"`
	Version    kong.VersionFlag `help:"Show version and exit"`

	Dir string `arg:"" help:"Build output directory" type:"existingdir"`
}

// AfterApply sets up logging once flags are parsed
func (c *CLI) AfterApply() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	if c.Verbose {
		level = log.LevelDebug
	}
	log.SetLevel(level)
	return nil
}

// Run rewrites Dir
func (c *CLI) Run() error {
	cfg, err := c.resolveConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("Rewriting %s (base %s, expression %s)", c.Dir, cfg.Base, cfg.Expression)
	report, err := p.ProcessDir(ctx, c.Dir)
	if err != nil {
		return err
	}
	if len(report.Warnings) > 0 {
		log.Warn("%d references still use %s and will not follow the runtime base", len(report.Warnings), cfg.Base)
	}
	return nil
}

// resolveConfig loads the configuration file, if any, and applies flags
func (c *CLI) resolveConfig() (config.Config, error) {
	cfg := config.DefaultConfig()

	if c.Config != "" {
		loaded, err := config.LoadFile(c.Config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return cfg, fmt.Errorf("failed to get working directory: %w", err)
		}
		loaded, err := config.Load(wd)
		if err != nil {
			return cfg, err
		}
		if loaded != nil {
			cfg = *loaded
		}
	}

	if c.Base != "" {
		cfg.Base = c.Base
	}
	if c.Expression != "" {
		cfg.Expression = c.Expression
	}
	if c.AssetsDir != "" {
		cfg.AssetsDir = c.AssetsDir
	}
	if c.Target != "" {
		cfg.HTML.Target = c.Target
	}
	if c.NoHTML {
		cfg.HTML.Enabled = false
	}
	if c.Minify {
		cfg.Minify = true
	}
	return cfg, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("publicpath"),
		kong.Description("Rewrite the static base path of a web build into a runtime expression."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Long()},
	)

	if err := ctx.Run(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}
