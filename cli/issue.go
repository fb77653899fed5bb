package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"text2phenotype.com/sdoh/types"
)

type IssueResult struct {
	Token          string    `json:"token"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
}

type issueOptions struct {
	clinicName string
	logoURL    string
	patient    string
	language   string
}

func NewIssueCommand(rootOpts *RootOptions, deps Dependencies) *cobra.Command {
	opts := &issueOptions{}
	cmd := &cobra.Command{
		Use:           "issue",
		Short:         "Create a screening and print its token",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssue(rootOpts, opts, deps, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.clinicName, "clinic", "", "clinic name shown to the patient")
	cmd.Flags().StringVar(&opts.logoURL, "logo", "", "clinic logo URL")
	cmd.Flags().StringVar(&opts.patient, "patient", "", "patient first name")
	cmd.Flags().StringVar(&opts.language, "language", "en", "preferred language of the patient (BCP 47)")
	_ = cmd.MarkFlagRequired("clinic")
	return cmd
}

func runIssue(rootOpts *RootOptions, opts *issueOptions, deps Dependencies, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	admin, err := deps.Screenings()
	if err != nil {
		return formatter.Error(WrapExitError(ExitCommandError, "connect to screenings", err))
	}
	defer admin.Close()

	language := types.MatchLanguage(opts.language)
	formatter.VerboseLog("Language %q resolved to %s", opts.language, language)
	token, record, err := admin.Create(cmd.Context(), types.ClinicInfo{
		ClinicName:         opts.clinicName,
		ClinicLogoURL:      opts.logoURL,
		PatientFirstName:   opts.patient,
		LanguagePreference: string(language),
	})
	if err != nil {
		return formatter.Error(WrapExitError(ExitFailure, "create screening", err))
	}
	result := IssueResult{Token: token, TokenExpiresAt: record.TokenExpiresAt}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintln(w, token)
		fmt.Fprintf(w, "Expires: %s\n", record.TokenExpiresAt.Format(time.RFC3339))
	})
}

func NewDeclineCommand(rootOpts *RootOptions, deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:           "decline <token>",
		Short:         "Record that the patient declined the screening",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			admin, err := deps.Screenings()
			if err != nil {
				return formatter.Error(WrapExitError(ExitCommandError, "connect to screenings", err))
			}
			defer admin.Close()
			record, err := admin.Decline(cmd.Context(), args[0])
			if err != nil {
				return formatter.Error(WrapExitError(ExitFailure, "decline screening", err))
			}
			return formatter.Success(record.Response().ScreeningState, func(w io.Writer) {
				fmt.Fprintf(w, "Status: %s\n", record.Status)
			})
		},
	}
}
