package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"text2phenotype.com/sdoh/flow"
	"text2phenotype.com/sdoh/types"
)

type catalogConfig struct {
	Path string `envconfig:"SDOH_CATALOG_PATH" default:""`
}

type resumeOptions struct {
	cacheBackend string
	cachePath    string
	demo         bool
}

func NewResumeCommand(rootOpts *RootOptions, deps Dependencies) *cobra.Command {
	opts := &resumeOptions{}
	cmd := &cobra.Command{
		Use:   "resume <token>",
		Short: "Load a screening the way the patient client does",
		Long: `Fetch the screening, merge it with the device cache and print the view
the patient would land on together with progress and missing fields.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResume(rootOpts, opts, deps, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&opts.cacheBackend, "cache-backend", CacheSQLite, "device cache backend (sqlite|redis)")
	cmd.Flags().StringVar(&opts.cachePath, "cache", "screenings.db", "SQLite device cache database")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "use the in-memory demo service")
	return cmd
}

func runResume(rootOpts *RootOptions, opts *resumeOptions, deps Dependencies, token string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var catalogCfg catalogConfig
	if err := envconfig.Process("", &catalogCfg); err != nil {
		return formatter.Error(WrapExitError(ExitCommandError, "read environment", err))
	}
	catalog, err := types.LoadCatalog(catalogCfg.Path)
	if err != nil {
		return formatter.Error(WrapExitError(ExitCommandError, "load question catalog", err))
	}
	service, err := deps.Service(opts.demo)
	if err != nil {
		return formatter.Error(WrapExitError(ExitCommandError, "create screening client", err))
	}
	deviceCache, err := deps.Cache(opts.cacheBackend, opts.cachePath)
	if err != nil {
		return formatter.Error(WrapExitError(ExitCommandError, "open device cache", err))
	}
	if closer, ok := deviceCache.(io.Closer); ok {
		defer closer.Close()
	}

	controller, err := flow.Start(cmd.Context(), token, service, deviceCache, catalog, time.Now())
	if err != nil {
		formatter.VerboseLog("Load failed: %v", err)
	}
	screen := controller.Screen()
	if err := formatter.Success(screen, func(w io.Writer) {
		fmt.Fprintf(w, "View: %s\n", screen.View)
		if controller.Store() == nil {
			return
		}
		fmt.Fprintf(w, "Clinic: %s\n", screen.ClinicInfo.ClinicName)
		fmt.Fprintf(w, "Language: %s\n", screen.Language)
		if screen.Question != nil {
			fmt.Fprintf(w, "Question: %s\n", screen.Question.Descriptor())
		}
		fmt.Fprintf(w, "Progress: %d%%\n", screen.Progress)
		printMissing(w, controller.Store().MissingFields())
	}); err != nil {
		return err
	}
	if controller.View().Terminal() && controller.View() != flow.ViewComplete {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("screening unavailable: %s", controller.View()), Err: err}
	}
	return nil
}
