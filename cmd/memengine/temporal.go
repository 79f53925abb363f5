package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruizrica/drift-sub006/internal/temporal"
)

func parseTimeFlag(cmd *cobra.Command, name string, def time.Time) (time.Time, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t.UTC(), nil
}

var reconstructAtCmd = &cobra.Command{
	Use:   "reconstruct-at <memory-id>",
	Short: "Reconstruct a memory's state as of a point in time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseTimeFlag(cmd, "as-of", time.Now().UTC())
		if err != nil {
			return err
		}
		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		m, err := eng.Snapshots.ReconstructAt(context.Background(), args[0], asOf)
		if err != nil {
			return err
		}
		return printJSON(m)
	},
}

var reconstructAllAtCmd = &cobra.Command{
	Use:   "reconstruct-all-at",
	Short: "Reconstruct every memory's state as of a point in time",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseTimeFlag(cmd, "as-of", time.Now().UTC())
		if err != nil {
			return err
		}
		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		memories, err := eng.Snapshots.ReconstructAllAt(context.Background(), asOf)
		if err != nil {
			return err
		}
		return printJSON(memories)
	},
}

var queryAsOfCmd = &cobra.Command{
	Use:   "query-as-of",
	Short: "Query memories live at a given system time and valid time",
	RunE: func(cmd *cobra.Command, args []string) error {
		systemTime, err := parseTimeFlag(cmd, "system-time", time.Now().UTC())
		if err != nil {
			return err
		}
		validTime, err := parseTimeFlag(cmd, "valid-time", time.Now().UTC())
		if err != nil {
			return err
		}
		tags, _ := cmd.Flags().GetStringSlice("tag")

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		q := temporal.New(eng.Snapshots)
		memories, err := q.QueryAsOf(context.Background(), systemTime, validTime, temporal.Filter{Tags: tags})
		if err != nil {
			return err
		}
		return printJSON(memories)
	},
}

var queryRangeCmd = &cobra.Command{
	Use:   "query-range",
	Short: "Query memories whose valid-time interval relates to [from, to] under an Allen-algebra mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseTimeFlag(cmd, "from", time.Time{})
		if err != nil {
			return err
		}
		to, err := parseTimeFlag(cmd, "to", time.Now().UTC())
		if err != nil {
			return err
		}
		mode, _ := cmd.Flags().GetString("mode")

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		q := temporal.New(eng.Snapshots)
		memories, err := q.QueryRange(context.Background(), from, to, temporal.RangeMode(mode))
		if err != nil {
			return err
		}
		return printJSON(memories)
	},
}

var queryDiffCmd = &cobra.Command{
	Use:   "query-diff",
	Short: "Diff the engine's state between two points in time",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeA, err := parseTimeFlag(cmd, "time-a", time.Time{})
		if err != nil {
			return err
		}
		timeB, err := parseTimeFlag(cmd, "time-b", time.Now().UTC())
		if err != nil {
			return err
		}
		namespace, _ := cmd.Flags().GetString("namespace")

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		q := temporal.New(eng.Snapshots)
		diff, err := q.QueryDiff(context.Background(), timeA, timeB, temporal.DiffScope{Namespace: namespace})
		if err != nil {
			return err
		}
		return printJSON(diff)
	},
}

var replayDecisionCmd = &cobra.Command{
	Use:   "replay-decision <decision-id>",
	Short: "Replay a decision against the evidence available at the time, with hindsight annotations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, _ := cmd.Flags().GetInt("budget")

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		q := temporal.New(eng.Snapshots)
		replay, err := q.ReplayDecision(context.Background(), args[0], budget, eng.Causal, temporal.DefaultRanker{})
		if err != nil {
			return err
		}
		return printJSON(replay)
	},
}

func init() {
	reconstructAtCmd.Flags().String("as-of", "", "RFC3339 timestamp (default now)")
	reconstructAllAtCmd.Flags().String("as-of", "", "RFC3339 timestamp (default now)")

	queryAsOfCmd.Flags().String("system-time", "", "RFC3339 timestamp (default now)")
	queryAsOfCmd.Flags().String("valid-time", "", "RFC3339 timestamp (default now)")
	queryAsOfCmd.Flags().StringSlice("tag", nil, "filter to memories carrying any of these tags")

	queryRangeCmd.Flags().String("from", "", "RFC3339 timestamp (default zero time)")
	queryRangeCmd.Flags().String("to", "", "RFC3339 timestamp (default now)")
	queryRangeCmd.Flags().String("mode", string(temporal.RangeOverlaps), "overlaps|contains|started-during|ended-during")

	queryDiffCmd.Flags().String("time-a", "", "RFC3339 timestamp (default zero time)")
	queryDiffCmd.Flags().String("time-b", "", "RFC3339 timestamp (default now)")
	queryDiffCmd.Flags().String("namespace", "", "restrict the diff to one namespace")

	replayDecisionCmd.Flags().Int("budget", 0, "max candidate memories considered (0 = unbounded)")

	rootCmd.AddCommand(reconstructAtCmd, reconstructAllAtCmd, queryAsOfCmd, queryRangeCmd, queryDiffCmd, replayDecisionCmd)
}
