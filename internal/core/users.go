package core

import (
	"context"
	"log/slog"

	"github.com/siahsang/articles/internal/auth"
	"github.com/siahsang/articles/models"
)

// IdentityFor resolves a token subject to the identity the policy checks
// run against.
func (c *Core) IdentityFor(ctx context.Context, username string) (auth.Identity, error) {
	user, err := c.users.GetUserByUsername(ctx, username)
	if err != nil {
		return auth.Anonymous(), err
	}
	return auth.IdentityOf(user), nil
}

func (c *Core) SeedUsers(ctx context.Context, users []*models.User) error {
	for _, user := range users {
		seeded, err := c.users.EnsureUser(ctx, user)
		if err != nil {
			return err
		}
		c.log.InfoContext(ctx, "user seeded",
			slog.Int64("user_id", seeded.ID),
			slog.String("username", seeded.Username),
			slog.Bool("staff", seeded.IsStaff),
		)
	}
	return nil
}
