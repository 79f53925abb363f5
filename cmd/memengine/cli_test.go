package main

import "testing"

func TestRootCmd_SubcommandsRegistered(t *testing.T) {
	expected := []string{
		"record-event", "get-events", "record-late-arrival", "record-future-claim",
		"reconstruct-at", "reconstruct-all-at", "query-as-of", "query-range", "query-diff", "replay-decision",
		"walk", "what-if-removed", "what-if-changed", "prune-weak-edges", "query-temporal-causal",
		"ground-single", "run-grounding-batch",
		"health",
		"ingest-event", "analysis-status",
	}
	registered := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("expected subcommand %q to be registered on rootCmd", name)
		}
	}
}

func TestGetEventsCmd_RequiresExactlyOneArg(t *testing.T) {
	if getEventsCmd.Args == nil {
		t.Fatal("get-events should have Args validation")
	}
	if err := getEventsCmd.Args(getEventsCmd, []string{}); err == nil {
		t.Error("expected error with 0 args")
	}
	if err := getEventsCmd.Args(getEventsCmd, []string{"mem-1"}); err != nil {
		t.Errorf("expected no error with 1 arg, got: %v", err)
	}
}

func TestRecordEventCmd_AcceptsAtMostOneArg(t *testing.T) {
	if recordEventCmd.Args == nil {
		t.Fatal("record-event should have Args validation")
	}
	if err := recordEventCmd.Args(recordEventCmd, []string{}); err != nil {
		t.Errorf("expected no error with 0 args (stdin), got: %v", err)
	}
	if err := recordEventCmd.Args(recordEventCmd, []string{"a.json"}); err != nil {
		t.Errorf("expected no error with 1 arg, got: %v", err)
	}
	if err := recordEventCmd.Args(recordEventCmd, []string{"a.json", "b.json"}); err == nil {
		t.Error("expected error with 2 args")
	}
}

func TestQueryRangeCmd_FlagDefinitions(t *testing.T) {
	flags := queryRangeCmd.Flags()
	for _, name := range []string{"from", "to", "mode"} {
		if flags.Lookup(name) == nil {
			t.Errorf("expected flag %q not found on query-range command", name)
		}
	}
	f := flags.Lookup("mode")
	if f.DefValue != "overlaps" {
		t.Errorf("mode default = %q, want 'overlaps'", f.DefValue)
	}
}

func TestWalkCmd_DefaultDirectionIsForward(t *testing.T) {
	f := walkCmd.Flags().Lookup("direction")
	if f == nil {
		t.Fatal("direction flag not found")
	}
	if f.DefValue != "forward" {
		t.Errorf("direction default = %q, want 'forward'", f.DefValue)
	}
}

func TestPruneWeakEdgesCmd_FlagDefinitions(t *testing.T) {
	f := pruneWeakEdgesCmd.Flags().Lookup("threshold")
	if f == nil {
		t.Fatal("threshold flag not found")
	}
	if f.DefValue != "0.1" {
		t.Errorf("threshold default = %q, want '0.1'", f.DefValue)
	}
}

func TestRecordLateArrivalCmd_AcceptsAtMostOneArg(t *testing.T) {
	if err := recordLateArrivalCmd.Args(recordLateArrivalCmd, []string{}); err != nil {
		t.Errorf("expected no error with 0 args (stdin), got: %v", err)
	}
	if err := recordLateArrivalCmd.Args(recordLateArrivalCmd, []string{"a.json", "b.json"}); err == nil {
		t.Error("expected error with 2 args")
	}
}

func TestIngestEventCmd_AcceptsAtMostOneArg(t *testing.T) {
	if err := ingestEventCmd.Args(ingestEventCmd, []string{}); err != nil {
		t.Errorf("expected no error with 0 args (stdin), got: %v", err)
	}
	if err := ingestEventCmd.Args(ingestEventCmd, []string{"a.json", "b.json"}); err == nil {
		t.Error("expected error with 2 args")
	}
}
