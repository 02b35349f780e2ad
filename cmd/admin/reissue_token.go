package main

import (
	"errors"

	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/spf13/cobra"
)

// NewReissueTokenCmd creates the reissue-token subcommand.
func NewReissueTokenCmd() *cobra.Command {
	var email, purpose string

	cmd := &cobra.Command{
		Use:   "reissue-token",
		Short: "Issue and send a fresh validation or reset token",
		Long: `Issue a new single-use token for a user and send it again. Use it when a
token was consumed but the change it guarded was not stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			p, err := models.ParseTokenPurpose(purpose)
			if err != nil {
				return err
			}

			cfg, err := loadCmdConfig()
			if err != nil {
				return err
			}

			identity, closeFn, err := openIdentity(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := identity.ReissueToken(cmd.Context(), email, p); err != nil {
				return err
			}

			cmd.Printf("Sent a new %s token to %s\n", p, email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&purpose, "purpose", "validation", "token purpose: validation or reset")
	return cmd
}
