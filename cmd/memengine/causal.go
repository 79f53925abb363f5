package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruizrica/drift-sub006/internal/causal"
	"github.com/ruizrica/drift-sub006/internal/temporal"
)

var walkCmd = &cobra.Command{
	Use:   "walk <memory-id>",
	Short: "Walk the causal graph from a memory in a given direction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		direction, _ := cmd.Flags().GetString("direction")
		maxDepth, _ := cmd.Flags().GetInt("max-depth")

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		g, err := eng.Causal.Load(context.Background())
		if err != nil {
			return err
		}
		return printJSON(g.Walk(args[0], causal.Direction(direction), maxDepth))
	},
}

var whatIfRemovedCmd = &cobra.Command{
	Use:   "what-if-removed <memory-id>",
	Short: "Report the downstream effects that would be orphaned if this memory were removed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		g, err := eng.Causal.Load(context.Background())
		if err != nil {
			return err
		}
		return printJSON(g.Counterfactual(args[0]))
	},
}

var whatIfChangedCmd = &cobra.Command{
	Use:   "what-if-changed <memory-id>",
	Short: "Report what downstream memories would need re-grounding if this memory changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		g, err := eng.Causal.Load(context.Background())
		if err != nil {
			return err
		}
		return printJSON(g.Intervention(args[0]))
	},
}

var pruneWeakEdgesCmd = &cobra.Command{
	Use:   "prune-weak-edges",
	Short: "Delete causal edges whose strength falls below a threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("threshold")

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		report, err := eng.Causal.Prune(context.Background(), threshold)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var queryTemporalCausalCmd = &cobra.Command{
	Use:   "query-temporal-causal <memory-id>",
	Short: "Walk the causal graph as it existed as of a point in time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseTimeFlag(cmd, "as-of", time.Now().UTC())
		if err != nil {
			return err
		}
		direction, _ := cmd.Flags().GetString("direction")
		maxDepth, _ := cmd.Flags().GetInt("max-depth")

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		q := temporal.New(eng.Snapshots)
		results, err := q.QueryTemporalCausal(context.Background(), eng.Causal, args[0], asOf, causal.Direction(direction), maxDepth)
		if err != nil {
			return fmt.Errorf("query-temporal-causal: %w", err)
		}
		return printJSON(results)
	},
}

func init() {
	walkCmd.Flags().String("direction", string(causal.DirectionForward), "forward|backward|both")
	walkCmd.Flags().Int("max-depth", 10, "maximum traversal depth")

	pruneWeakEdgesCmd.Flags().Float64("threshold", 0.1, "edges with strength below this are removed")

	queryTemporalCausalCmd.Flags().String("as-of", "", "RFC3339 timestamp (default now)")
	queryTemporalCausalCmd.Flags().String("direction", string(causal.DirectionForward), "forward|backward|both")
	queryTemporalCausalCmd.Flags().Int("max-depth", 10, "maximum traversal depth")

	rootCmd.AddCommand(walkCmd, whatIfRemovedCmd, whatIfChangedCmd, pruneWeakEdgesCmd, queryTemporalCausalCmd)
}
