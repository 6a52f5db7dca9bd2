package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/funnelgraph/lag/internal/engine"
	"github.com/funnelgraph/lag/internal/model"
	"github.com/funnelgraph/lag/internal/query"
	"github.com/funnelgraph/lag/internal/store"
	"github.com/funnelgraph/lag/internal/topo"
)

// ComputeOptions holds flags for the compute command.
type ComputeOptions struct {
	*RootOptions
	Database  string
	Query     string
	AsOf      string
	Slices    string
	Overrides []string
}

// ComputeResult is the compute command's output payload.
type ComputeResult struct {
	RunID       string `json:"run_id"`
	SnapshotID  string `json:"snapshot_id,omitempty"`
	Updated     int    `json:"updated"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	Cyclic      bool   `json:"cyclic,omitempty"`
	NothingToDo bool   `json:"nothing_to_do,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func (r ComputeResult) String() string {
	if r.NothingToDo {
		return fmt.Sprintf("nothing to do: %s (run %s)", r.Reason, r.RunID)
	}
	return fmt.Sprintf("updated %d, skipped %d, failed %d (run %s, snapshot %s)",
		r.Updated, r.Skipped, r.Failed, r.RunID, r.SnapshotID)
}

// NewComputeCommand creates the compute command.
func NewComputeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComputeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compute <funnel.cue>",
		Short: "Run the LAG pipeline over a funnel definition",
		Long: `Run the full latency-adjusted graph pipeline: topology, path horizons,
cohort aggregation, completeness, blending, inbound populations, and an
atomic batch merge into a new graph snapshot.

Example:
  lag compute funnel.cue --db lag.db --query "cohort(signup,2026-01-01:2026-03-31)"
  lag compute funnel.cue --db lag.db --slices export.yaml --as-of 2026-04-15`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Query, "query", "", `query constraint, e.g. "window(2026-01-01:2026-03-31)"`)
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "query date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.Slices, "slices", "", "slice fixture YAML to import before running")
	cmd.Flags().StringArrayVar(&opts.Overrides, "override", nil, "what-if override edge=multiplier (repeatable)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runCompute(opts *ComputeOptions, funnelPath string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	g, err := LoadFunnel(funnelPath)
	if err != nil {
		_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load funnel", err)
	}

	var constraint *query.Constraint
	if opts.Query != "" {
		constraint, err = query.Parse(opts.Query)
		if err != nil {
			_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid query", err)
		}
	}

	now := model.DayOf(time.Now())
	if opts.AsOf != "" {
		now, err = model.ParseDay(opts.AsOf)
		if err != nil {
			_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid --as-of date", err)
		}
	}

	overrides, err := parseOverrides(opts.Overrides)
	if err != nil {
		_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid override", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()

	if opts.Slices != "" {
		fx, err := LoadSliceFixtures(opts.Slices)
		if err != nil {
			_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load slice fixtures", err)
		}
		for paramID, values := range fx.Parameters {
			if err := st.ImportValues(ctx, paramID, values); err != nil {
				_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to import slice fixtures", err)
			}
		}
		formatter.Verbosef("imported fixtures for %d parameter(s)\n", len(fx.Parameters))
	}

	eng := engine.New(st)
	outcome, err := eng.Run(ctx, g, engine.ExecContext{
		Now:        now,
		Constraint: constraint,
		Overrides:  overrides,
		Sink:       engine.SlogSink{},
	})
	if err != nil {
		code := ErrCodeGeneric
		if engine.IsBatchApplyError(err) {
			code = ErrCodeCompute
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "pipeline failed", err)
	}

	result := ComputeResult{
		RunID:       outcome.RunID,
		Updated:     outcome.Updated,
		Skipped:     outcome.Skipped,
		Failed:      outcome.Failed,
		Cyclic:      outcome.Cyclic,
		NothingToDo: outcome.NothingToDo,
		Reason:      outcome.Reason,
	}

	if !outcome.NothingToDo {
		snapID, err := st.SaveSnapshot(ctx, outcome.Graph, outcome.RunID)
		if err != nil {
			_ = formatter.Error(ErrCodeCompute, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to save snapshot", err)
		}
		result.SnapshotID = snapID
	}

	return formatter.Success(result)
}

// parseOverrides parses repeated edge=multiplier flags.
func parseOverrides(raw []string) (topo.Overrides, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ov := make(topo.Overrides, len(raw))
	for _, s := range raw {
		eq := strings.IndexByte(s, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("override %q must be edge=multiplier", s)
		}
		mult, err := strconv.ParseFloat(s[eq+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", s, err)
		}
		if mult < 0 {
			return nil, fmt.Errorf("override %q: multiplier must be non-negative", s)
		}
		ov[s[:eq]] = mult
	}
	return ov, nil
}
