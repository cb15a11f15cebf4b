package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	weavepkg "github.com/ctweave/weave"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a persisted weave's structural invariants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("validate: %w", err)
		}
		w, err := weavepkg.UnmarshalWeave[rune](data)
		if err != nil {
			return fmt.Errorf("validate: decode %s: %w", args[0], err)
		}
		if err := w.Validate(); err != nil {
			logger.Error("validation failed", zap.String("file", args[0]), zap.Error(err))
			return err
		}
		logger.Info("weave is valid", zap.String("file", args[0]), zap.Int("atoms", len(w.Atoms())))
		fmt.Printf("%s: valid, %d atoms\n", args[0], len(w.Atoms()))
		return nil
	},
}
