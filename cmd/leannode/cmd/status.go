package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/ReamLabs/ream-sub002/config"
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/storage"
	"github.com/ReamLabs/ream-sub002/storage/operation"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the checkpoints stored in the database",
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return fmt.Errorf("could not open database: %w", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				err = multierror.Append(err, closeErr).ErrorOrNil()
			}
		}()
		return printStatus(cmd.OutOrStdout(), db.Reader())
	},
}

func init() {
	config.InitFlags(statusCmd.Flags())
	rootCmd.AddCommand(statusCmd)
}

func printStatus(w io.Writer, r storage.Reader) error {
	var genesis lean.Root
	err := operation.RetrieveGenesis(r, &genesis)
	if errors.Is(err, storage.ErrNotFound) {
		_, err = fmt.Fprintln(w, "database is not bootstrapped")
		return err
	}
	if err != nil {
		return fmt.Errorf("could not retrieve genesis: %w", err)
	}
	fmt.Fprintf(w, "%-10s %s\n", "genesis", genesis)

	kinds := []operation.CheckpointKind{
		operation.CheckpointHead,
		operation.CheckpointJustified,
		operation.CheckpointFinalized,
		operation.CheckpointSafe,
	}
	for _, kind := range kinds {
		var cp lean.Checkpoint
		if err := operation.RetrieveCheckpoint(r, kind, &cp); err != nil {
			return fmt.Errorf("could not retrieve %s checkpoint: %w", kind, err)
		}
		fmt.Fprintf(w, "%-10s slot=%d root=%s\n", kind, cp.Slot, cp.Root)
	}
	return nil
}
