package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mmcdole/moviedeck/internal/config"
	"github.com/mmcdole/moviedeck/internal/store"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the poster cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show poster cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				stats, err := st.ImageStats()
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Directory", cfg.Cache.Dir},
					{"Stored images", strconv.Itoa(stats.Entries)},
					{"Disk size", humanize.Bytes(uint64(stats.Bytes))},
					{"Memory budget", fmt.Sprintf("%d entries / %s", cfg.Cache.MemoryEntries, humanize.Bytes(uint64(cfg.Cache.MemoryBytes)))},
					{"Missing cooldown", cfg.Cache.MissingCooldown.String()},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored poster (lists are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				before, err := st.ImageStats()
				if err != nil {
					return err
				}
				if err := st.ClearImages(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d images (%s)\n", before.Entries, humanize.Bytes(uint64(before.Bytes)))
				return nil
			})
		},
	}
}
