package cli

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/matzehuels/thoughtgraph/internal/server"
	"github.com/matzehuels/thoughtgraph/pkg/cache"
	"github.com/matzehuels/thoughtgraph/pkg/catalog"
	"github.com/matzehuels/thoughtgraph/pkg/observability"
	"github.com/matzehuels/thoughtgraph/pkg/pipeline"
	"github.com/matzehuels/thoughtgraph/pkg/viewer"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	dataDir   string
	noBrowser bool
	repair    bool
	noWatch   bool
	noCache   bool
}

// serveCommand creates the serve command for the browser viewer.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Open the interactive viewer in the browser",
		Long: `Start the browser viewer. Files under the data directory can be picked from
the page, and any other JSON file can be uploaded. Pass a file to open it
straight away.`,
		Example: `  thoughtgraph serve
  thoughtgraph serve run.json --no-browser
  thoughtgraph serve --data-dir ./runs --addr 127.0.0.1:9000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return c.runServe(cmd, file, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, 127.0.0.1:8501)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "directory of JSON files offered in the picker")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "do not open a browser window")
	cmd.Flags().BoolVar(&opts.repair, "repair", false, "repair malformed JSON before parsing")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not watch the data directory for changes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, file string, opts serveOpts) error {
	ctx := cmd.Context()
	cfg := c.config()
	logger := loggerFromContext(ctx)

	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.dataDir != "" {
		cfg.Data.Dir = opts.dataDir
	}
	if opts.repair {
		cfg.Data.Repair = true
	}
	if opts.noWatch {
		cfg.Data.Watch = false
	}
	if opts.noBrowser {
		cfg.Server.OpenBrowser = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var renderCache cache.Cache = cache.NewMemoryCache(cfg.Cache.MaxEntries)
	if opts.noCache || cfg.Cache.Disabled {
		renderCache = cache.NewNullCache()
	}
	runner := pipeline.NewRunner(renderCache, nil, logger)
	defer runner.Close()

	var metrics *observability.Metrics
	if cfg.Server.Metrics {
		metrics = observability.NewMetrics(appName)
		metrics.Install()
		defer observability.Reset()
	}

	cat, err := catalog.New(cfg.Data.Dir, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Watch:          cfg.Data.Watch,
		Options:        c.pipelineOptions(),
	}, runner, viewer.NewStore(cfg.Server.SessionTTL), cat, metrics, logger)

	var sessionID string
	if file != "" {
		sess, err := srv.Preload(ctx, file)
		if err != nil {
			printWarning("%s", err)
		}
		sessionID = sess.ID
	}

	return srv.Run(ctx, func(base string) {
		page := base + "/"
		if sessionID != "" {
			page += "?session=" + url.QueryEscape(sessionID)
		}
		printSuccess("Viewer running")
		printKeyValue("URL", StyleLink.Render(page))
		printKeyValue("Data", cfg.Data.Dir)
		printDetail("Press Ctrl+C to stop")

		if cfg.Server.OpenBrowser {
			if err := openBrowser(page); err != nil {
				logger.Warn("could not open browser", "error", err)
			}
		}
	})
}

// openBrowser opens rawURL in the user's default browser.
// Only http and https URLs are accepted.
func openBrowser(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
