package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/conneroisu/doccheck/internal/checker"
	"github.com/conneroisu/doccheck/internal/config"
	"github.com/conneroisu/doccheck/internal/links"
	"github.com/conneroisu/doccheck/internal/logging"
	"github.com/conneroisu/doccheck/internal/scanner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check [paths...]",
		Aliases: []string{"c"},
		Short:   "Check HTML documents once",
		Long: `Check every HTML document under the given paths (default: the current
directory) and report malformed markup, heading and landmark problems,
and broken links or anchors.

Findings are written as "path:line: message", followed by the totals of
each checker. The exit status is non-zero when any error was reported.

Examples:
  doccheck check docs
  doccheck check --checkers links --format json docs
  doccheck check -x docs/drafts -x '*.gen.html' docs`,
		RunE:         runCheck,
		SilenceUsage: true,
	}
	addScanFlags(cmd)
	return cmd
}

// checkReport is the JSON and YAML form of a run.
type checkReport struct {
	Findings []string        `json:"findings" yaml:"findings"`
	Summary  scanner.Summary `json:"summary" yaml:"summary"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	out, closeOut, err := openOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOut()

	summary, err := checkOnce(cmd.Context(), cfg, scanner.NewFileSource(), logger, out)
	if err != nil {
		return err
	}
	return findingsError(summary)
}

// loadConfig binds the command's flags, takes the paths from args when
// given, and loads the validated configuration.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if err := bindScanFlags(cmd); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		viper.Set("paths", args)
	}
	return config.Load()
}

// openOutput returns the report writer: output.file when set, otherwise
// the command's stdout.
func openOutput(cmd *cobra.Command, cfg *config.Config) (io.Writer, func(), error) {
	if cfg.Output.File == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(cfg.Output.File)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// checkOnce runs every selected checker over cfg.Paths and writes the
// report to w in the configured format.
func checkOnce(ctx context.Context, cfg *config.Config, source scanner.Source, logger logging.Logger, w io.Writer) (scanner.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var findings bytes.Buffer
	findingsOut := io.Writer(&findings)
	if cfg.Output.Format == config.FormatText {
		findingsOut = w
	}

	reporter := checker.NewReporter(findingsOut, logger)
	suite, err := scanner.NewSuite(cfg.Checkers, reporter, links.Options{
		AllowedSchemes: cfg.Links.AllowedSchemes,
		MaxLocations:   cfg.Links.MaxLocations,
		Exists:         source.Exists,
		DirExists:      source.DirExists,
		Logger:         logger,
	})
	if err != nil {
		return scanner.Summary{}, err
	}

	s := scanner.New(source, scanner.Options{
		SkipSubdirs: cfg.SkipSubdirs,
		Exclude:     cfg.Exclude,
		Extensions:  cfg.Extensions,
	}, logger)

	result, err := s.Run(ctx, cfg.Paths, suite)
	if err != nil {
		return scanner.Summary{}, err
	}

	summary := suite.Summary(result)

	switch cfg.Output.Format {
	case config.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return summary, encoder.Encode(checkReport{Findings: lines(findings.String()), Summary: summary})
	case config.FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(checkReport{Findings: lines(findings.String()), Summary: summary}); err != nil {
			return summary, err
		}
		return summary, encoder.Close()
	default:
		suite.Report(w)
		return summary, nil
	}
}

// findingsError turns a run with errors into a command failure so the
// process exits non-zero.
func findingsError(summary scanner.Summary) error {
	if summary.Result.Errors == 0 {
		return nil
	}
	return fmt.Errorf("%d errors found", summary.Result.Errors)
}

func lines(s string) []string {
	out := []string{}
	sc := bufio.NewScanner(bytes.NewBufferString(s))
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}
