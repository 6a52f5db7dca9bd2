package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funnelgraph/lag/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <funnel.cue>",
		Short: "Validate a funnel definition",
		Long: `Validate a CUE funnel definition without running the pipeline.

Checks syntax, node/edge references, probability ranges and latency
configuration consistency.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	g, err := LoadFunnel(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load funnel", err)
	}

	if errs := compiler.Validate(g); len(errs) > 0 {
		if opts.Format == "json" {
			_ = formatter.Error(ErrCodeValidation, "funnel definition invalid", ValidationResult{Valid: false, Errors: errs})
		} else {
			for _, e := range errs {
				fmt.Fprintf(cmd.OutOrStdout(), "invalid: %s\n", e.Error())
			}
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(errs)), nil)
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	return formatter.Success(fmt.Sprintf("valid: %d nodes, %d edges", len(g.Nodes), len(g.Edges)))
}
