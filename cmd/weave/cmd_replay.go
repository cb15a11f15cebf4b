package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctweave/weave/internal/replay"
)

var replayOutput string

var replayCmd = &cobra.Command{
	Use:   "replay <snapshots.json>",
	Short: "Replay a sequence of text snapshots into a weave",
	Long: `replay reads a JSON array of {"label", "text"} snapshots, diffs each
consecutive pair, and applies the resulting edit script to a fresh weave one
character at a time, as if a single replica had typed the whole history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		var snapshots []replay.Snapshot
		if err := json.Unmarshal(data, &snapshots); err != nil {
			return fmt.Errorf("replay: parse %s: %w", args[0], err)
		}

		result, err := replay.Replay(logger, 0, snapshots)
		if err != nil {
			return err
		}
		logger.Info("replay complete",
			zap.Int("snapshots", len(snapshots)),
			zap.Int("atoms", result.AtomCount),
			zap.Int("length", result.Document.Len()),
		)
		fmt.Println(result.Document.String())

		if replayOutput != "" {
			out, err := result.Document.Weave().MarshalBinary()
			if err != nil {
				return fmt.Errorf("replay: encode output: %w", err)
			}
			if err := os.WriteFile(replayOutput, out, 0o644); err != nil {
				return fmt.Errorf("replay: write %s: %w", replayOutput, err)
			}
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayOutput, "out", "", "write the resulting weave to this file")
}
