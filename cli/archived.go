package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"text2phenotype.com/sdoh/submission"
)

func NewArchivedCommand(rootOpts *RootOptions, deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:           "archived <key>",
		Short:         "Print an archived submission",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			archive, err := deps.Archive()
			if err != nil {
				return formatter.Error(WrapExitError(ExitCommandError, "connect to archive", err))
			}
			defer archive.Close()
			b, err := archive.Download(cmd.Context(), args[0])
			if err != nil {
				return formatter.Error(WrapExitError(ExitFailure, "download submission", err))
			}
			var archived submission.Submission
			if err = json.Unmarshal(b, &archived); err != nil {
				return formatter.Error(WrapExitError(ExitFailure, "decode submission", err))
			}
			return formatter.Success(archived, func(w io.Writer) {
				fmt.Fprintf(w, "Event: %s\n", archived.EventID)
				fmt.Fprintf(w, "Submitted: %s\n", archived.SubmittedAt)
				fmt.Fprintf(w, "Clinic: %s\n", archived.ClinicInfo.ClinicName)
				fmt.Fprintf(w, "Answered: %d\n", archived.Answers.Answered())
			})
		},
	}
}
