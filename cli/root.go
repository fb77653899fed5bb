// Package cli implements screenctl, the operator tool for issuing screening
// links and inspecting screenings.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"text2phenotype.com/sdoh/cache"
	"text2phenotype.com/sdoh/remote"
	"text2phenotype.com/sdoh/s3client"
	"text2phenotype.com/sdoh/screenings"
	"text2phenotype.com/sdoh/types"
)

type RootOptions struct {
	Verbose bool
	Format  string
}

var ValidFormats = []string{"text", "json"}

const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

var CacheBackends = []string{CacheSQLite, CacheRedis}

type screeningAdmin interface {
	Create(ctx context.Context, clinicInfo types.ClinicInfo) (string, *screenings.Record, error)
	Decline(ctx context.Context, token string) (*screenings.Record, error)
	Close()
}

type archiveReader interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Close()
}

// Dependencies builds the clients commands talk to, so tests can swap them.
type Dependencies struct {
	Screenings func() (screeningAdmin, error)
	Service    func(demo bool) (remote.Service, error)
	Cache      func(backend string, path string) (cache.Cache, error)
	Archive    func() (archiveReader, error)
}

func DefaultDependencies() Dependencies {
	return Dependencies{
		Screenings: func() (screeningAdmin, error) {
			return screenings.NewClient()
		},
		Service: func(demo bool) (remote.Service, error) {
			if demo {
				return remote.NewDemo(), nil
			}
			return remote.NewClientFromEnv()
		},
		Cache: func(backend string, path string) (cache.Cache, error) {
			switch backend {
			case CacheSQLite:
				return cache.OpenSQLite(path)
			case CacheRedis:
				return cache.OpenRedis()
			}
			return nil, fmt.Errorf("unknown cache backend %q: must be one of %v", backend, CacheBackends)
		},
		Archive: func() (archiveReader, error) {
			return s3client.New()
		},
	}
}

func NewRootCommand(deps Dependencies) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "screenctl",
		Short: "Operate social needs screenings",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewIssueCommand(opts, deps))
	cmd.AddCommand(NewDeclineCommand(opts, deps))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewResumeCommand(opts, deps))
	cmd.AddCommand(NewArchivedCommand(opts, deps))

	return cmd
}
