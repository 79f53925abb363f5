package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruizrica/drift-sub006/internal/types"
)

var recordEventCmd = &cobra.Command{
	Use:   "record-event [event.json]",
	Short: "Append a memory event, reading its JSON from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args)
		if err != nil {
			return err
		}
		var ev types.MemoryEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		id, err := eng.RecordEvent(context.Background(), &ev)
		if err != nil {
			return err
		}
		return printJSON(map[string]int64{"event_id": id})
	},
}

var recordLateArrivalCmd = &cobra.Command{
	Use:   "record-late-arrival [memory.json]",
	Short: "Create a memory for a fact just learned about the past, reading its JSON from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args)
		if err != nil {
			return err
		}
		var m types.Memory
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decode memory: %w", err)
		}

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		id, err := eng.Events.RecordLateArrival(context.Background(), &m, types.Actor{Type: types.ActorUser, ID: "cli"})
		if err != nil {
			return err
		}
		return printJSON(map[string]int64{"event_id": id})
	},
}

var recordFutureClaimCmd = &cobra.Command{
	Use:   "record-future-claim [memory.json]",
	Short: "Create a memory claiming something not yet true, reading its JSON from a file or stdin (requires temporal.allow_future_claims)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args)
		if err != nil {
			return err
		}
		var m types.Memory
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decode memory: %w", err)
		}

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		id, err := eng.Events.RecordFutureClaim(context.Background(), eng.Config.Temporal, &m, types.Actor{Type: types.ActorUser, ID: "cli"})
		if err != nil {
			return err
		}
		return printJSON(map[string]int64{"event_id": id})
	},
}

var getEventsCmd = &cobra.Command{
	Use:   "get-events <memory-id>",
	Short: "List a memory's events in append order, optionally before a recorded-at time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		before, _ := cmd.Flags().GetString("before")
		var beforePtr *time.Time
		if before != "" {
			v, err := time.Parse(time.RFC3339, before)
			if err != nil {
				return fmt.Errorf("--before: %w", err)
			}
			v = v.UTC()
			beforePtr = &v
		}

		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		events, err := eng.Events.EventsForMemory(context.Background(), args[0], beforePtr)
		if err != nil {
			return err
		}
		return printJSON(events)
	},
}

func init() {
	getEventsCmd.Flags().String("before", "", "RFC3339 timestamp; only events recorded before this time")
	rootCmd.AddCommand(recordEventCmd, getEventsCmd, recordLateArrivalCmd, recordFutureClaimCmd)
}

// readInput reads args[0] as a file path, or stdin if no args were given.
func readInput(args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}
