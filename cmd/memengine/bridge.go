package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruizrica/drift-sub006/internal/bridge"
)

var ingestEventCmd = &cobra.Command{
	Use:   "ingest-event [event.json]",
	Short: "Map an analysis event to a memory and ingest it through the bridge, reading its JSON from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args)
		if err != nil {
			return err
		}
		var ev bridge.AnalysisEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("decode analysis event: %w", err)
		}

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		if eng.Bridge == nil {
			return fmt.Errorf("ingest-event: bridge is not enabled in this configuration")
		}

		result, err := eng.Bridge.IngestOne(context.Background(), ev)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var analysisStatusCmd = &cobra.Command{
	Use:   "analysis-status",
	Short: "Report the analysis store's latest scan timestamp and matching pattern count",
	RunE: func(cmd *cobra.Command, args []string) error {
		patternIDs, _ := cmd.Flags().GetStringSlice("pattern-id")

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		status, err := eng.AnalysisStatus(context.Background(), patternIDs)
		if err != nil {
			return err
		}
		return printJSON(status)
	},
}

func init() {
	analysisStatusCmd.Flags().StringSlice("pattern-id", nil, "pattern IDs to count against the analysis store (repeatable)")
	rootCmd.AddCommand(ingestEventCmd, analysisStatusCmd)
}
