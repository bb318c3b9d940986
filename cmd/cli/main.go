package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/sololink/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/sololink/pkg/config"
	"github.com/wadjakorntonsri/sololink/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, true)

	if err := newRootCmd(cfg.DatabaseURL, log).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the admin CLI. Every subcommand opens the store
// itself so one invocation is one connection.
func newRootCmd(defaultDB string, log *zerolog.Logger) *cobra.Command {
	var databaseURL string

	root := &cobra.Command{
		Use:           "sololink-cli",
		Short:         "Administer a sololink database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&databaseURL, "database", defaultDB, "database URL (defaults to DATABASE_URL)")

	open := func(ctx context.Context) (*sqlstore.Store, error) {
		return sqlstore.New(ctx, databaseURL)
	}

	root.AddCommand(
		newExportCmd(open),
		newImportCmd(open, log),
		newCreateUserCmd(open),
	)
	return root
}

type storeOpener func(ctx context.Context) (*sqlstore.Store, error)
