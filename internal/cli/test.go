package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gamify/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter    string // scenario filter (glob pattern on the file name)
	GoldenDir string // directory of {scenario}.golden snapshots
	Update    bool   // regenerate golden files
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files against the engine",
		Long: `Run every .yaml/.yml scenario under a directory. Each scenario runs on a
fresh engine with a manual clock and sequential ids, checking per-step
expectations and final-state assertions.

With --golden-dir each result is also compared to {name}.golden in that
directory; --update rewrites those files instead.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  gamify test ./scenarios
  gamify test ./scenarios --filter "streak*"
  gamify test ./scenarios --golden-dir ./golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "compare results with golden snapshots in this directory")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden-dir)")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if outErr := formatter.Error(ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", dir), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: scenarios directory not found: %s", ErrCodeNotFound, dir))
	}
	if opts.Update && opts.GoldenDir == "" {
		return argFailure(formatter, "--update requires --golden-dir")
	}

	paths, err := harness.FindScenarios(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	paths, err = filterScenarios(paths, opts.Filter)
	if err != nil {
		return argFailure(formatter, err.Error())
	}

	if len(paths) == 0 {
		if opts.Format == "json" {
			return formatter.Success(&harness.Summary{})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	var summary *harness.Summary
	if opts.GoldenDir == "" {
		summary = harness.RunAll(paths)
	} else {
		summary = runWithGolden(opts, paths, formatter)
	}

	if opts.Format == "json" {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		writeSummaryText(cmd, summary)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", summary.Failed, summary.Total))
	}
	return nil
}

// filterScenarios keeps paths whose base name, without extension, matches
// the glob.
func filterScenarios(paths []string, filter string) ([]string, error) {
	if filter == "" {
		return paths, nil
	}
	var out []string
	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		matched, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, p)
		}
	}
	return out, nil
}

// runWithGolden runs each scenario and checks (or rewrites) its snapshot.
func runWithGolden(opts *TestOptions, paths []string, formatter *OutputFormatter) *harness.Summary {
	sum := &harness.Summary{}
	fail := func(name, path string, errs ...string) {
		sum.Failed++
		sum.Failures = append(sum.Failures, harness.Failure{Scenario: name, Path: path, Errors: errs})
	}

	for _, path := range paths {
		sum.Total++

		s, err := harness.LoadScenario(path)
		if err != nil {
			fail(path, path, err.Error())
			continue
		}
		res, err := harness.Run(s)
		if err != nil {
			fail(s.Name, path, err.Error())
			continue
		}
		if !res.Pass {
			fail(s.Name, path, res.Errors...)
			continue
		}

		snap, err := harness.MarshalSnapshot(s.Name, res)
		if err != nil {
			fail(s.Name, path, fmt.Sprintf("snapshot: %v", err))
			continue
		}
		goldenPath := filepath.Join(opts.GoldenDir, s.Name+".golden")

		if opts.Update {
			if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
				fail(s.Name, path, fmt.Sprintf("golden update: %v", err))
				continue
			}
			if err := os.WriteFile(goldenPath, snap, 0o644); err != nil {
				fail(s.Name, path, fmt.Sprintf("golden update: %v", err))
				continue
			}
			formatter.VerboseLog("updated %s", goldenPath)
			sum.Passed++
			continue
		}

		want, err := os.ReadFile(goldenPath)
		if err != nil {
			fail(s.Name, path, fmt.Sprintf("golden file: %v", err))
			continue
		}
		if !bytes.Equal(bytes.TrimSpace(want), snap) {
			fail(s.Name, path, fmt.Sprintf("snapshot differs from %s", goldenPath))
			continue
		}
		sum.Passed++
	}
	return sum
}

func writeSummaryText(cmd *cobra.Command, sum *harness.Summary) {
	w := cmd.OutOrStdout()
	for _, f := range sum.Failures {
		fmt.Fprintf(w, "✗ %s\n", f.Scenario)
		for _, e := range f.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", sum.Passed, sum.Failed, sum.Total)
}
