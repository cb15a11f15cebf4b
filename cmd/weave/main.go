// Command weave is the CLI front-end for the causal tree weave CvRDT: it can
// run a small multi-replica editing demo, serve a single persisted replica
// over HTTP, replay a sequence of text snapshots into a weave, and validate
// a previously persisted weave against every structural invariant.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ctweave/weave/internal/config"
)

var (
	verbose    bool
	configPath string

	logger *zap.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "weave",
	Short: "Causal tree weave CvRDT toolkit",
	Long: `weave implements the causal tree weave: a replicated ordered-document
CvRDT whose replicas converge without central coordination.

Run a subcommand to exercise it: demo starts a multi-replica editing
server, serve exposes a single persisted replica over HTTP, replay turns
a sequence of text snapshots into weave edits, and validate checks a
persisted weave's structural invariants.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := zapcore.InfoLevel
		if verbose {
			level = zapcore.DebugLevel
		} else if err := level.Set(cfg.LogLevel); err != nil {
			level = zapcore.InfoLevel
		}

		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		l, err := zapCfg.Build()
		if err != nil {
			return fmt.Errorf("weave: initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			_ = logger.Sync()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "weave.yaml", "path to the weave config file")

	rootCmd.AddCommand(demoCmd, replayCmd, validateCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
