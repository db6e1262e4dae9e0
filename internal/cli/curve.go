package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gamify/internal/levels"
)

// CurveOptions holds flags for the curve command.
type CurveOptions struct {
	*RootOptions
	Levels int   // how many levels to list
	XP     int64 // when >= 0, report the level and progress for this XP
}

// CurveRow is one level of the XP curve.
type CurveRow struct {
	Level     int   `json:"level"`
	Threshold int64 `json:"threshold"`
}

// CurveResult is the output of the curve command.
type CurveResult struct {
	MaxLevel int        `json:"max_level"`
	Levels   []CurveRow `json:"levels"`
	XP       *int64     `json:"xp,omitempty"`
	Level    int        `json:"level,omitempty"`
	Progress *float64   `json:"progress,omitempty"`
}

// NewCurveCommand creates the curve command.
func NewCurveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CurveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Print the XP level curve",
		Long: `Print the XP threshold of each level. With --xp, also report the level
that amount of XP reaches and the progress toward the next one.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurve(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Levels, "levels", levels.MaxLevel, "number of levels to list")
	cmd.Flags().Int64Var(&opts.XP, "xp", -1, "report level and progress for this XP")

	return cmd
}

func runCurve(opts *CurveOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Levels < 1 {
		return argFailure(formatter, fmt.Sprintf("--levels must be at least 1, got %d", opts.Levels))
	}

	result := CurveResult{MaxLevel: levels.MaxLevel}
	for i, threshold := range levels.Table(opts.Levels) {
		result.Levels = append(result.Levels, CurveRow{Level: i + 1, Threshold: threshold})
	}
	if opts.XP >= 0 {
		xp := opts.XP
		p := levels.Progress(xp)
		result.XP = &xp
		result.Level = levels.LevelForXP(xp)
		result.Progress = &p.Progress
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Level  XP")
	for _, row := range result.Levels {
		marker := ""
		if row.Level > levels.MaxLevel {
			marker = "  (unreachable)"
		}
		fmt.Fprintf(w, "%5d  %d%s\n", row.Level, row.Threshold, marker)
	}
	if result.XP != nil {
		fmt.Fprintf(w, "\n%d XP: level %d, %.0f%% to next\n", *result.XP, result.Level, *result.Progress*100)
	}
	return nil
}
