package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruizrica/drift-sub006/internal/types"
)

var groundSingleCmd = &cobra.Command{
	Use:   "ground-single <memory-id>",
	Short: "Run the grounding pipeline against one memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		ctx := context.Background()
		m, err := eng.Snapshots.ReconstructAt(ctx, args[0], time.Now().UTC())
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("ground-single: no such memory %q", args[0])
		}

		result, err := eng.Grounding.GroundSingle(ctx, nil, m, nil)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var runGroundingBatchCmd = &cobra.Command{
	Use:   "run-grounding-batch",
	Short: "Run the grounding pipeline against every live memory, emitting one snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		trigger, _ := cmd.Flags().GetString("trigger")

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		ctx := context.Background()
		candidates, err := eng.Snapshots.ReconstructAllAt(ctx, time.Now().UTC())
		if err != nil {
			return err
		}

		snap, groundErrs := eng.Grounding.RunBatch(ctx, candidates, nil, types.TriggerType(trigger))
		out := struct {
			Snapshot *types.GroundingSnapshot `json:"snapshot"`
			Errors   []string                 `json:"errors,omitempty"`
		}{Snapshot: snap}
		for _, e := range groundErrs {
			out.Errors = append(out.Errors, e.Error())
		}
		return printJSON(out)
	},
}

func init() {
	runGroundingBatchCmd.Flags().String("trigger", string(types.TriggerOnDemand), "post-scan-incremental|post-scan-full|scheduled|on-demand|memory-creation|memory-update")
	rootCmd.AddCommand(groundSingleCmd, runGroundingBatchCmd)
}
