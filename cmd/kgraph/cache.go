package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/birdayz/kgraph/internal/plancache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the plan cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached plan keys",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every cached plan",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&compileCacheDir, "cache-dir", "", "Directory of the plan cache")
	_ = cacheCmd.MarkPersistentFlagRequired("cache-dir")

	cacheCmd.AddCommand(cacheListCmd, cachePurgeCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	c, err := plancache.Open(compileCacheDir)
	if err != nil {
		return err
	}
	defer c.Close()

	for key := range c.Keys() {
		fmt.Fprintln(cmd.OutOrStdout(), key)
	}
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	c, err := plancache.Open(compileCacheDir)
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := c.Purge()
	if err != nil {
		return err
	}
	logger.Info().Int("plans", n).Str("dir", compileCacheDir).Msg("Purged plan cache")
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d plans\n", n)
	return nil
}
