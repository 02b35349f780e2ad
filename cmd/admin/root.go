package main

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/wordrush/internal/dbx"
	"github.com/dmitrijs2005/wordrush/internal/server"
	"github.com/dmitrijs2005/wordrush/internal/server/config"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/repomanager"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const connectAttempts = 3

var configFile string

// Seams replaced in tests.
var (
	loadConfig = config.LoadFile

	openDB = func(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
		return dbx.Open(ctx, repomanager.DriverName, cfg.DatabaseDSN, connectAttempts)
	}

	newManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}

	openIdentity = func(ctx context.Context, cfg *config.Config) (tokenReissuer, func(), error) {
		app, err := server.NewApp(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return app.Identity(), app.Close, nil
	}
)

type tokenReissuer interface {
	ReissueToken(ctx context.Context, email string, purpose models.TokenPurpose) error
}

// NewRootCmd creates the root command for the admin CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wordrush-admin",
		Short:         "Operator tasks for the wordrush server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "JSON config file path")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewImportWordsCmd())
	cmd.AddCommand(NewReissueTokenCmd())

	return cmd
}

func loadCmdConfig() (*config.Config, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("config", configFile).Wrap(err)
	}
	return cfg, nil
}
