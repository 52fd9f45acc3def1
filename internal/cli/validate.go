package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
)

// validateCommand creates the validate command, which loads files and builds
// their graphs without rendering.
func (c *CLI) validateCommand() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check thought-graph files and print their size",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args, repair)
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "repair malformed JSON before parsing")

	return cmd
}

func (c *CLI) runValidate(ctx context.Context, inputs []string, repair bool) error {
	runner, err := c.newRunner(true)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := c.pipelineOptions()
	opts.Logger = loggerFromContext(ctx)
	if repair {
		opts.Repair = true
	}

	var failed int
	for _, input := range inputs {
		res, err := runner.Execute(ctx, input, opts)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			code := tgerrors.GetCode(err)
			printError("%s: %s", filepath.Base(input), tgerrors.Title(code))
			printDetail("%s", tgerrors.UserMessage(err))
			failed++
			continue
		}
		printSuccess("%s", filepath.Base(input))
		printDetail("%d nodes · %d edges · %d levels · %s layout",
			res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.LevelCount, res.Layout.Mode)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files are invalid", failed, len(inputs))
	}
	return nil
}
