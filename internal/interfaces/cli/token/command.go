// Package token mints bearer tokens for operators and local testing.
package token

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensox/paygate/internal/infrastructure/auth"
	"github.com/opensox/paygate/internal/infrastructure/config"
	"github.com/opensox/paygate/internal/shared/biztime"
)

var (
	env        string
	configPath string
	userID     string
	role       string
	ttl        time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token",
		Long:  `Sign a JWT with auth.jwt.secret for the given user and role and print it.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id carried in the sub claim (required)")
	cmd.Flags().StringVarP(&role, "role", "r", "user", "Role claim checked by admin and metrics policies")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Auth.JWT.Secret == "" {
		return fmt.Errorf("auth.jwt.secret is not configured")
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	signed, err := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, biztime.System()).Generate(userID, role, ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}
