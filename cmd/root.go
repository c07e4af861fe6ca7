// Package cmd provides the command-line interface for doccheck.
//
// Configuration is layered, highest priority first:
//
//  1. Command-line flags (--format, --exclude, ...)
//  2. DOCCHECK_* environment variables (DOCCHECK_OUTPUT_FORMAT, DOCCHECK_LINKS_MAX_LOCATIONS)
//  3. The configuration file: --config, then DOCCHECK_CONFIG_FILE, then .doccheck.yml
//  4. Built-in defaults
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/conneroisu/doccheck/internal/config"
	"github.com/conneroisu/doccheck/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "doccheck",
	Short: "Check HTML documentation trees for broken links and structure",
	Long: `doccheck reads a tree of HTML documents and reports markup that is not
well formed, heading and landmark problems, and links to missing files
or anchors.

Quick Start:
  doccheck check docs            Check every .html file under docs
  doccheck check --format json   Machine-readable findings and totals
  doccheck watch docs            Re-check whenever a document changes

A non-zero exit status means at least one error was reported.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .doccheck.yml, can also use DOCCHECK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig selects the configuration file and enables DOCCHECK_*
// environment overrides. A missing file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("DOCCHECK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".doccheck")
	}

	viper.SetEnvPrefix("DOCCHECK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.SetDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger from the loaded configuration. Logs
// go to stderr so they never mix with the report.
func newLogger(cfg *config.Config) logging.Logger {
	level, _ := logging.ParseLevel(cfg.Log.Level)
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	}).WithComponent("cli")
}
