// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mdpress/internal/upload"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the upload cache (stats, purge)",
	Long: `Cache manages the local SQLite database mapping image payload digests
to hosted URLs, which keeps re-conversions from re-uploading unchanged
images.`,
}

// --- stats subcommand ---

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached upload count and payload volume",
	RunE:  runCacheStats,
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cache, err := openCacheFromFlags(cmd)
	if err != nil {
		return err
	}
	defer cache.Close()

	stats, err := cache.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("%d cached upload(s), %d bytes of payload\n", stats.Entries, stats.Bytes)
	return nil
}

// --- purge subcommand ---

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached upload entry",
	RunE:  runCachePurge,
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	cache, err := openCacheFromFlags(cmd)
	if err != nil {
		return err
	}
	defer cache.Close()

	removed, err := cache.Purge()
	if err != nil {
		return err
	}
	fmt.Printf("purged %d cached upload(s)\n", removed)
	return nil
}

// --- shared helpers ---

func openCacheFromFlags(cmd *cobra.Command) (*upload.Cache, error) {
	path := configString(cmd, "cache-path", "cache.path", defaultCachePath)
	return upload.OpenCache(path)
}

func init() {
	// Shared flag on the parent command, inherited by subcommands.
	cacheCmd.PersistentFlags().String("cache-path", "", "path to the upload cache database (default .mdpress/uploads.db)")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)

	rootCmd.AddCommand(cacheCmd)
}
