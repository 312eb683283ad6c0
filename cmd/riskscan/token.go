package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/security"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token for the server's mutating routes",
		Long: `Mint an admin bearer token for the server's mutating routes.

The token is signed with RISK_JWT_SECRET, the same variable the server reads,
and is sent as "Authorization: Bearer <token>" on PUT /profiles/:name and
DELETE /runs/:id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				return apperrors.NewValidationError("--ttl must be positive")
			}

			auth := security.NewAdminAuth(os.Getenv("RISK_JWT_SECRET"), nil)
			if !auth.Enabled() {
				return apperrors.NewConfigurationError("RISK_JWT_SECRET is not set", nil)
			}

			token, err := auth.GenerateToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "riskscan", "subject claim recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
