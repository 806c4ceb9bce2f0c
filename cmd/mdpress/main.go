// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mdpress CLI.
// Implements: prd008-cli (command surface for prd001-conversion,
//
//	prd002-images, prd004-upload, prd006-pipeline, prd007-fetch).
//
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdpress/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the mdpress CLI.
var rootCmd = &cobra.Command{
	Use:   "mdpress",
	Short: "Convert PDFs to Markdown with re-hosted images",
	Long: `mdpress converts PDF documents to Markdown. The text layer becomes the
artifact body; embedded raster images are extracted, normalized to PNG,
uploaded to a remote image host, and re-inserted as evenly spaced
references in the converted text.

Inputs can be local PDFs, directories of PDFs, or http(s) URLs. The
upload cache keeps re-conversions from re-uploading unchanged images.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mdpress.yaml or ~/.config/mdpress/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mdpress")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mdpress"))
		}
	}

	viper.SetEnvPrefix("MDPRESS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configString resolves a setting from, in order, the flag, the viper
// key (config file or MDPRESS_ env), then the fallback.
func configString(cmd *cobra.Command, flag, key, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

func configInt(cmd *cobra.Command, flag, key string, fallback int) int {
	if v, _ := cmd.Flags().GetInt(flag); v != 0 {
		return v
	}
	if v := viper.GetInt(key); v != 0 {
		return v
	}
	return fallback
}

func configDuration(cmd *cobra.Command, flag, key string, fallback time.Duration) time.Duration {
	if v, _ := cmd.Flags().GetDuration(flag); v != 0 {
		return v
	}
	if v := viper.GetDuration(key); v != 0 {
		return v
	}
	return fallback
}

func configBool(cmd *cobra.Command, flag, key string) bool {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetBool(flag)
		return v
	}
	return viper.GetBool(key)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
