// Root command for the libris CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/libris-app/libris/internal/paths"
)

// Exit codes: 0 success, 1 user error (bad input, not found, conflict),
// 2 system error (config, storage).
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// configDataDir holds the data_dir value loaded from config.yaml.
// Set by PersistentPreRunE so all subcommands can use it.
var configDataDir string

var rootCmd = &cobra.Command{
	Use:     "libris",
	Short:   "Libris is a local-first library circulation manager",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.libris)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.libris-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(authorCmd)
	rootCmd.AddCommand(genreCmd)
	rootCmd.AddCommand(readerCmd)
	rootCmd.AddCommand(loanCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(reportCmd)
}

// resolveDataDir returns the data directory path following precedence:
// --data-dir flag > config.yaml data_dir > LIBRIS_DATA_DIR env > default
// $(CWD)/.libris-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory following
// precedence: --config-dir flag > LIBRIS_CONFIG_DIR env > DefaultConfigDir().
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
