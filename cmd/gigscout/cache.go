package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the shared search cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.StoreTimeout()*2)
		defer cancel()

		store, err := openStore(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open cache store: %w", err)
		}
		defer store.Close()

		purged, err := store.PurgeExpired(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to purge cache: %w", err)
		}

		if jsonOutput {
			return printJSON(map[string]int64{"purged": purged})
		}
		fmt.Fprintf(stdout, "Purged %d expired entries\n", purged)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
}
