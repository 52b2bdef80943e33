package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-gym/apps/cli/cmd/clienv"
	"github.com/zenGate-Global/palmyra-gym/platform/go/auth/devtoken"
)

func devTokenCommand() *cobra.Command {
	var (
		params    devtoken.Params
		secret    string
		expiresIn time.Duration
	)
	def := clienv.Defaults()

	cmd := &cobra.Command{
		Use:   "devtoken",
		Short: "Mint an HS256 JWT accepted by the API for local and CI use",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret (or JWT_SECRET) is required")
			}
			if _, err := uuid.Parse(params.TenantID); err != nil {
				return fmt.Errorf("--tenant-id must be a uuid: %w", err)
			}
			if params.BranchID != "" {
				if _, err := uuid.Parse(params.BranchID); err != nil {
					return fmt.Errorf("--branch-id must be a uuid: %w", err)
				}
			}
			params.Secret = []byte(secret)
			params.ExpiresIn = expiresIn

			token, err := devtoken.BuildToken(params, time.Now().UTC())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", def.JWTSecret, "HMAC secret shared with the API (env JWT_SECRET)")
	cmd.Flags().StringVar(&params.UserID, "user-id", "", "sub claim")
	cmd.Flags().StringVar(&params.TenantID, "tenant-id", "", "tenant_id claim")

	cmd.Flags().StringVar(&params.BranchID, "branch-id", "", "branch_id claim (home branch)")
	cmd.Flags().StringVar(&params.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&params.Name, "name", "", "display name")
	cmd.Flags().BoolVar(&params.IsAdmin, "admin", false, "set is_admin=true")
	cmd.Flags().StringVar(&params.Issuer, "issuer", def.JWTIssuer, "iss claim (env JWT_ISSUER)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", time.Hour, "token lifetime (e.g. 30m, 2h)")

	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("tenant-id")

	return cmd
}
