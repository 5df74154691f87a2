package main

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nurpe/rentflow/internal/auth"
	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/repository"
	"github.com/nurpe/rentflow/internal/service"
)

func tokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			return withDB(func(database *dbHandle) error {
				users := service.NewUserService(repository.NewUserRepository(database.db))
				token, err := issueToken(cmd.Context(), users, auth.NewParser(database.cfg.Auth.AccessSecret), id, time.Now(), ttl)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id (uuid)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// issueToken signs a token carrying the stored role of the user.
func issueToken(ctx context.Context, users *service.UserService, parser *auth.Parser, id uuid.UUID, now time.Time, ttl time.Duration) (string, error) {
	user, err := users.Find(ctx, id)
	if err != nil {
		return "", fmt.Errorf("user %s: %w", id, err)
	}
	return parser.Issue(
		model.Principal{UserID: user.ID, Role: user.Role},
		jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	)
}
