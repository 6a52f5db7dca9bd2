package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funnelgraph/lag/internal/topo"
)

// InspectRow is one edge's topology summary.
type InspectRow struct {
	EdgeID  string  `json:"edge_id"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Mean    float64 `json:"mean"`
	OwnT95  float64 `json:"own_t95"`
	PathT95 float64 `json:"path_t95"`
	Active  bool    `json:"active"`
}

// InspectResult is the inspect command's output payload.
type InspectResult struct {
	Nodes  int          `json:"nodes"`
	Edges  int          `json:"edges"`
	Cyclic bool         `json:"cyclic,omitempty"`
	Rows   []InspectRow `json:"rows"`
}

func (r InspectResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d nodes, %d edges", r.Nodes, r.Edges)
	if r.Cyclic {
		b.WriteString(" (cyclic: declaration order)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-24s %-12s %-12s %8s %8s %8s\n", "EDGE", "FROM", "TO", "MEAN", "T95", "PATH_T95")
	for _, row := range r.Rows {
		marker := ""
		if !row.Active {
			marker = " (inactive)"
		}
		fmt.Fprintf(&b, "%-24s %-12s %-12s %8.3f %8.1f %8.1f%s\n",
			row.EdgeID, row.From, row.To, row.Mean, row.OwnT95, row.PathT95, marker)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <funnel.cue>",
		Short: "Show topology and path horizons for a funnel",
		Long: `Compile a funnel definition and print its active edges in topological
order with own and cumulative maturity horizons. No database required;
nothing is computed from slice data.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	active := topo.ActiveSet(topo.ActiveEdges(g, nil))
	order, cyclic := topo.TopologicalOrder(g, active)
	pathT95 := topo.PathT95(g, order, active)

	result := InspectResult{Nodes: len(g.Nodes), Edges: len(g.Edges), Cyclic: cyclic}
	for _, id := range order {
		e := g.Edge(id)
		result.Rows = append(result.Rows, InspectRow{
			EdgeID:  id,
			From:    e.From,
			To:      e.To,
			Mean:    e.Param.Mean,
			OwnT95:  topo.OwnT95(e),
			PathT95: pathT95[id],
			Active:  true,
		})
	}
	for i := range g.Edges {
		if !active[g.Edges[i].ID] {
			e := &g.Edges[i]
			result.Rows = append(result.Rows, InspectRow{
				EdgeID: e.ID, From: e.From, To: e.To, Mean: e.Param.Mean, OwnT95: topo.OwnT95(e),
			})
		}
	}

	return formatter.Success(result)
}
