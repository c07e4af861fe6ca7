package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/conneroisu/doccheck/internal/config"
	"github.com/conneroisu/doccheck/internal/scanner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// scanFlagBindings maps the flags shared by check and watch to their
// configuration keys.
var scanFlagBindings = map[string]string{
	"exclude":         "exclude",
	"skip-subdirs":    "skip_subdirs",
	"extensions":      "extensions",
	"checkers":        "checkers",
	"format":          "output.format",
	"output":          "output.file",
	"allowed-schemes": "links.allowed_schemes",
	"max-locations":   "links.max_locations",
}

// checkerList is a comma separated list of checker names, validated as
// it is parsed.
type checkerList []string

func (l *checkerList) String() string {
	return strings.Join(*l, ",")
}

func (l *checkerList) Set(val string) error {
	var names []string
	for _, name := range strings.Split(val, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !slices.Contains(scanner.KnownCheckers, name) {
			return fmt.Errorf("unknown checker %q (known: %s)", name, strings.Join(scanner.KnownCheckers, ", "))
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return fmt.Errorf("at least one checker is required")
	}
	*l = names
	return nil
}

func (l *checkerList) Type() string {
	return "checkers"
}

// addScanFlags adds the flags shared by the commands that scan documents.
func addScanFlags(cmd *cobra.Command) {
	checkers := checkerList(slices.Clone(scanner.KnownCheckers))

	cmd.Flags().StringSliceP("exclude", "x", nil, "paths or base-name patterns to skip")
	cmd.Flags().Bool("skip-subdirs", false, "check only the files directly inside each path")
	cmd.Flags().StringSlice("extensions", scanner.DefaultExtensions, "file extensions treated as HTML")
	cmd.Flags().VarP(&checkers, "checkers", "c", "checkers to run (a11y, links)")
	cmd.Flags().StringP("format", "f", config.FormatText, "output format (text, json, yaml)")
	cmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringSlice("allowed-schemes", nil, "URI schemes accepted in external links")
	cmd.Flags().Int("max-locations", 0, "referencing locations listed per missing file")

	AddFlagValidation(cmd, "format", ValidateFormat)
	AddFlagValidation(cmd, "max-locations", ValidateNonNegative)
}

// bindScanFlags binds the running command's scan flags to their
// configuration keys. Binding happens at run time because check and watch
// share the keys.
func bindScanFlags(cmd *cobra.Command) error {
	for flagName, key := range scanFlagBindings {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", flagName, err)
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:       flag.Value,
		validator:   validator,
		originalSet: flag.Value.Set,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}

// ValidateFormat accepts the report formats.
func ValidateFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case config.FormatText, config.FormatJSON, config.FormatYAML:
		return nil
	}
	return fmt.Errorf("invalid output format %s, must be one of: text, json, yaml", format)
}

// ValidateNonNegative accepts integers of zero or more.
func ValidateNonNegative(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid number: %s", s)
	}
	if n < 0 {
		return fmt.Errorf("must not be negative, got %d", n)
	}
	return nil
}
