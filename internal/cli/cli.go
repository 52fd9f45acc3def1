// Package cli implements the thoughtgraph command-line interface.
//
// This package provides commands for viewing LLM thought-process graphs in the
// browser or the terminal, exporting them as diagrams, converting reasoning
// pools into plain node-link JSON and checking files for problems. The CLI is
// built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - serve: Start the browser viewer, optionally with a file preloaded
//   - inspect: Browse a graph in the terminal
//   - render: Export a graph as SVG, DOT, PDF or PNG
//   - convert: Turn reasoning-pool files into node-link JSON
//   - validate: Load files and report node, edge and level counts
//   - cache: Manage the render cache
//
// # Configuration
//
// Settings come from thoughtgraph.toml, .env, THOUGHTGRAPH_* variables and
// flags, in that order. See package config.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking. Set
// [log] file in the config to also write a rotated log file.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/thoughtgraph/pkg/buildinfo"
	"github.com/matzehuels/thoughtgraph/pkg/cache"
	"github.com/matzehuels/thoughtgraph/pkg/config"
	"github.com/matzehuels/thoughtgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "thoughtgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	stderr     io.Writer
	configFile string
	verbose    bool
	logFile    io.Closer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		stderr: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Close releases the log file, if one was opened.
func (c *CLI) Close() error {
	if c.logFile != nil {
		return c.logFile.Close()
	}
	return nil
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "thoughtgraph shows LLM thought processes as interactive graphs",
		Long: `thoughtgraph loads a JSON file describing an LLM's thought process, builds a
graph from it and lets you explore it in the browser or the terminal. Click a
node to see everything recorded about it.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return c.setup(cmd) },
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default ./"+config.DefaultFile+" if present)")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads configuration and wires logging before any command runs.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg

	level := parseLevel(cfg.Log.Level)
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)

	if cfg.Log.File != "" && c.logFile == nil {
		w, err := newFileWriter(cfg.Log)
		if err != nil {
			return err
		}
		c.logFile = w
		c.Logger.SetOutput(io.MultiWriter(c.stderr, w))
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// config returns the loaded configuration, or defaults before setup ran.
func (c *CLI) config() *config.Config {
	if c.Config == nil {
		c.Config = config.Default()
	}
	return c.Config
}

// =============================================================================
// Runner Factory
// =============================================================================

// pipelineOptions builds pipeline options from the configuration.
func (c *CLI) pipelineOptions() pipeline.Options {
	cfg := c.config()
	return pipeline.Options{
		Fields: cfg.Fields.Document(),
		Repair: cfg.Data.Repair,
		Layout: cfg.Layout,
		Logger: c.Logger,
	}
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	cfg := c.config()
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the default render cache directory.
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
