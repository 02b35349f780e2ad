package main

import (
	"errors"

	"github.com/dmitrijs2005/wordrush/internal/server/catalog"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewImportWordsCmd creates the import-words subcommand.
func NewImportWordsCmd() *cobra.Command {
	var file, s3Key string

	cmd := &cobra.Command{
		Use:   "import-words",
		Short: "Load a JSON word list into the catalog",
		Long: `Load a JSON word list, from a local file or from the configured S3 bucket,
and upsert every word in one transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (file == "") == (s3Key == "") {
				return errors.New("exactly one of --file or --s3-key is required")
			}

			cfg, err := loadCmdConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var src catalog.Source = catalog.FileSource{Path: file}
			if s3Key != "" {
				src, err = catalog.NewS3Source(ctx, catalog.S3Config{
					User:     cfg.S3RootUser,
					Password: cfg.S3RootPassword,
					Bucket:   cfg.S3Bucket,
					Region:   cfg.S3Region,
					Endpoint: cfg.S3BaseEndpoint,
				}, s3Key)
				if err != nil {
					return oops.Code("S3_INIT_FAILED").Wrap(err)
				}
			}

			db, err := openDB(ctx, cfg)
			if err != nil {
				return oops.Code("DB_CONNECT_FAILED").Wrap(err)
			}
			defer db.Close()

			n, err := catalog.Import(ctx, db, newManager(), src)
			if err != nil {
				return err
			}

			cmd.Printf("Imported %d words from %s\n", n, src)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to a JSON word list")
	cmd.Flags().StringVar(&s3Key, "s3-key", "", "object key of a JSON word list in the S3 bucket")
	return cmd
}
