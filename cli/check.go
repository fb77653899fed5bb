package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"text2phenotype.com/sdoh/types"
	"text2phenotype.com/sdoh/validation"
)

type CheckResult struct {
	Complete      bool                      `json:"complete"`
	Progress      int                       `json:"progress"`
	MissingFields []validation.MissingField `json:"missing_fields"`
}

func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <snapshot.json|->",
		Short: "Validate a screening snapshot",
		Long: `Run the completeness rules over a snapshot holding "answers" and
"demographics" and report progress and missing fields. Exits with 1 when the
screening is incomplete.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
}

func runCheck(opts *RootOptions, source string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var r io.Reader = cmd.InOrStdin()
	if source != "-" {
		f, err := os.Open(source)
		if err != nil {
			return formatter.Error(WrapExitError(ExitCommandError, "open snapshot", err))
		}
		defer f.Close()
		r = f
	}
	var snapshot types.Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return formatter.Error(WrapExitError(ExitCommandError, "decode snapshot", err))
	}
	if err := snapshot.Answers.Validate(); err != nil {
		return formatter.Error(WrapExitError(ExitCommandError, "invalid snapshot", err))
	}
	formatter.VerboseLog("Checking %d answers", snapshot.Answers.Answered())

	result := CheckResult{
		Complete:      validation.IsScreeningComplete(snapshot.Answers, snapshot.Demographics),
		Progress:      validation.CalculateProgress(snapshot.Answers, snapshot.Demographics),
		MissingFields: validation.MissingFields(snapshot.Answers, snapshot.Demographics),
	}
	if err := formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Progress: %d%%\n", result.Progress)
		printMissing(w, result.MissingFields)
	}); err != nil {
		return err
	}
	if !result.Complete {
		return &ExitError{Code: ExitFailure, Message: "screening is incomplete"}
	}
	return nil
}

func printMissing(w io.Writer, missing []validation.MissingField) {
	if len(missing) == 0 {
		fmt.Fprintln(w, "Complete: yes")
		return
	}
	fmt.Fprintln(w, "Complete: no")
	fmt.Fprintln(w, "Missing:")
	for _, field := range missing {
		fmt.Fprintf(w, "  - %s\n", field)
	}
}
