package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruizrica/drift-sub006/internal/config"
	"github.com/ruizrica/drift-sub006/internal/runtime"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "memengine",
	Short: "Bitemporal, event-sourced memory engine",
	Long: `memengine exposes the operations a host (CLI, IDE, or language
binding) drives against the memory engine: recording and replaying events,
temporal reconstruction and queries, grounding, and the cross-store bridge.

Every subcommand returns a structured JSON result on stdout; exit codes and
any richer text formatting belong to the caller, not this binary.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (defaults applied for anything unset)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openEngine loads config and initializes a runtime.Engine for one command
// invocation. Every command opens its own engine and shuts it down when
// done — the CLI is not a long-lived host.
func openEngine(ctx context.Context) (*runtime.Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return runtime.Initialize(ctx, cfg)
}

// printJSON writes v to stdout as indented JSON, the CLI's one output shape.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
