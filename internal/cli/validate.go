package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/gamify/internal/compiler"
	"github.com/roach88/gamify/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool                       `json:"valid"`
	Rules        int                        `json:"rules"`
	Missions     int                        `json:"missions"`
	Achievements int                        `json:"achievements"`
	Errors       []compiler.ValidationError `json:"errors,omitempty"`
	Warnings     []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>...",
		Short: "Check rule, mission and achievement configs",
		Long: `Load one or more YAML or CUE config files, merge them and compile the
result without running anything. CUE files are checked against the
embedded schema first.

Exit codes:
  0 - Config compiles (warnings allowed)
  1 - Config has errors
  2 - Command error (missing or unparseable file)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	formatter.VerboseLog("Loading %d config file(s)", len(paths))
	doc, err := config.LoadFiles(paths...)
	if err != nil {
		return loadFailure(formatter, err)
	}

	res, errs := compiler.Compile(doc)
	result := ValidationResult{
		Valid:        len(errs) == 0,
		Rules:        len(res.Rules),
		Missions:     len(res.Missions),
		Achievements: len(res.Achievements),
		Errors:       errs,
		Warnings:     res.Warnings,
	}

	if opts.Format == "json" {
		if result.Valid {
			return formatter.Success(result)
		}
		if err := formatter.Error(ErrCodeInvalid,
			fmt.Sprintf("%d validation error(s)", len(errs)), result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s: validation failed", ErrCodeInvalid))
	}

	w := cmd.OutOrStdout()
	for _, e := range errs {
		fmt.Fprintf(w, "✗ %s\n", e.Error())
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "! %s\n", warn.Error())
	}
	if !result.Valid {
		fmt.Fprintf(w, "\n%d error(s), %d warning(s)\n", len(errs), len(res.Warnings))
		return NewExitError(ExitFailure, fmt.Sprintf("%s: validation failed", ErrCodeInvalid))
	}

	fmt.Fprintf(w, "✓ Config valid: %d rule(s), %d mission(s), %d achievement(s)\n",
		result.Rules, result.Missions, result.Achievements)
	return nil
}

// loadFailure reports a config that could not be read or parsed and
// returns the matching exit error.
func loadFailure(formatter *OutputFormatter, err error) error {
	code := ErrCodeParse
	if errors.Is(err, fs.ErrNotExist) {
		code = ErrCodeNotFound
	}

	var details any
	var pe *config.ParseError
	if errors.As(err, &pe) {
		details = map[string]any{"file": pe.File, "line": pe.Line, "column": pe.Column}
	}

	if outErr := formatter.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, code, err)
}
