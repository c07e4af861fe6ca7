package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/conneroisu/doccheck/internal/version"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	versionFormat string
	versionShort  bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for doccheck: version, git commit, build
time, Go version and target platform.

Examples:
  doccheck version               # Version and platform
  doccheck version --short       # Version only
  doccheck version --format json # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json, yaml)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	detailed, _ := cmd.Flags().GetBool("detailed")
	return writeVersion(cmd.OutOrStdout(), versionFormat, versionShort, detailed)
}

func writeVersion(w io.Writer, format string, short, detailed bool) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(version.GetBuildInfo())
	case "yaml":
		return yaml.NewEncoder(w).Encode(version.GetBuildInfo())
	case "text":
		switch {
		case short:
			fmt.Fprintln(w, version.GetShortVersion())
		case detailed:
			fmt.Fprintln(w, version.GetDetailedVersion())
			if version.IsRelease() {
				fmt.Fprintln(w, "Build type: release")
			} else {
				fmt.Fprintln(w, "Build type: development")
			}
		default:
			info := version.GetBuildInfo()
			fmt.Fprintf(w, "doccheck %s\n", version.GetShortVersion())
			fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
			fmt.Fprintf(w, "Platform: %s\n", info.Platform)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
	}
}
