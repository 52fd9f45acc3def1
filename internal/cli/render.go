package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/thoughtgraph/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string // output file path, "-" for stdout
	format    string // svg, dot, pdf or png
	detailed  bool   // include attribute details in node labels
	hideGroup string // drop nodes whose group attribute matches
	repair    bool   // repair malformed JSON before parsing
	noCache   bool   // bypass the render cache
}

// renderCommand creates the render command for exporting a graph diagram.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: pipeline.DefaultFormat}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Export a thought graph as SVG, DOT, PDF or PNG",
		Example: `  thoughtgraph render run.json
  thoughtgraph render run.json -f dot -o -
  thoughtgraph render run.json --hide-group final_sample -o run.png -f png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "" && opts.output != "-" && !cmd.Flags().Changed("format") {
				if ext := strings.TrimPrefix(filepath.Ext(opts.output), "."); pipeline.ValidateFormat(ext) == nil {
					opts.format = ext
				}
			}
			if err := pipeline.ValidateFormat(opts.format); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with format extension, - for stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, dot, pdf, png")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node attributes in the diagram")
	cmd.Flags().StringVar(&opts.hideGroup, "hide-group", "", "hide nodes whose group attribute has this value")
	cmd.Flags().BoolVar(&opts.repair, "repair", false, "repair malformed JSON before parsing")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.pipelineOptions()
	popts.Logger = logger
	if opts.repair {
		popts.Repair = true
	}

	spinner := newSpinnerWithContext(ctx, "Rendering "+filepath.Base(input)+"...")
	spinner.Start()

	res, err := runner.Execute(ctx, input, popts)
	if err != nil {
		spinner.Stop()
		return err
	}
	data, cached, err := runner.RenderWithCacheInfo(ctx, res, pipeline.RenderOptions{
		Format:    opts.format,
		Detailed:  opts.detailed,
		HideGroup: opts.hideGroup,
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	path := opts.output
	switch path {
	case "-":
		path = ""
	case "":
		path = strings.TrimSuffix(input, filepath.Ext(input)) + "." + opts.format
	}
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if err := writeOutput(out, data); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if path == "" {
		return nil
	}

	prog.done("Rendered " + path)
	printSuccess("Rendered %s", filepath.Base(input))
	printFile(path)
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, cached)
	return nil
}

func writeOutput(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
