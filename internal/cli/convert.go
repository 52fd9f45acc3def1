package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/thoughtgraph/pkg/document"
	"github.com/matzehuels/thoughtgraph/pkg/reasoning"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output    string // single output file, "-" for stdout
	outputDir string // directory for converted files
}

// convertCommand creates the convert command for reasoning-pool files.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert [file...]",
		Short: "Convert reasoning-pool files into node-link JSON",
		Long: `Convert reasoning-pool files (factual assignment, ground truth and sampled
results) into plain node-link JSON. Converted files are written to the data
directory by default so the viewer lists them.`,
		Example: `  thoughtgraph convert pool.json
  thoughtgraph convert pool.json -o -
  thoughtgraph convert runs/*.json --output-dir converted`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "" && len(args) > 1 {
				return fmt.Errorf("--output needs exactly one input file, got %d", len(args))
			}
			return c.runConvert(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single input only, - for stdout)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "output directory (default: the configured data directory)")

	return cmd
}

func (c *CLI) runConvert(ctx context.Context, inputs []string, opts convertOpts) error {
	logger := loggerFromContext(ctx)
	fields := c.config().Fields.Document()

	dir := opts.outputDir
	if dir == "" {
		dir = c.config().Data.Dir
	}

	var failed int
	targets := make(map[string]string)
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := opts.output
		if path == "" {
			path = filepath.Join(dir, strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))+".json")
		}
		if err := claimTarget(targets, input, path); err != nil {
			printError("%s: %s", input, err)
			failed++
			continue
		}
		if err := convertFile(input, path, fields); err != nil {
			printError("%s: %s", input, err)
			failed++
			continue
		}
		logger.Debug("converted", "input", input, "output", path)
		if path != "-" {
			printSuccess("Converted %s", filepath.Base(input))
			printFile(path)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to convert", failed, len(inputs))
	}
	if opts.output == "" {
		printNextStep("Browse the results", appName+" serve --data-dir "+dir)
	}
	return nil
}

// claimTarget records output as written by input. It refuses to overwrite
// the input itself or a file another input of the same run already wrote.
func claimTarget(targets map[string]string, input, output string) error {
	if output == "-" {
		return nil
	}
	in, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("output %s would overwrite the input", output)
	}
	if prev, ok := targets[out]; ok {
		return fmt.Errorf("output %s is already written by %s", output, prev)
	}
	targets[out] = input
	return nil
}

func convertFile(input, output string, fields document.Fields) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	doc, err := reasoning.Convert(filepath.Base(input), data, fields)
	if err != nil {
		return err
	}

	if output == "-" {
		output = ""
	} else if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := openOutput(output)
	if err != nil {
		return err
	}
	if err := reasoning.WriteNodeLink(out, doc, fields); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
