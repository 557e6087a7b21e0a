package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ottbox/backend/internal/auth"
	"github.com/ottbox/backend/internal/repositories"
)

var defaultUsers = []struct {
	username string
	password string
}{
	{"test", "test1234"},
	{"demo", "demo1234"},
	{"guest", "guestpass"},
	{"sample", "sample1234"},
}

// seedDefaultUsers inserts the fixed first-boot accounts, skipping any
// username that already exists so restarts never clobber changed passwords.
func seedDefaultUsers(ctx context.Context, users *repositories.SQLiteUserRepository, logger *slog.Logger) error {
	for _, candidate := range defaultUsers {
		_, err := users.FindByUsername(ctx, candidate.username)
		if err == nil {
			continue
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("look up seed user %s: %w", candidate.username, err)
		}

		salt, err := auth.GenerateSalt()
		if err != nil {
			return err
		}
		hash := auth.HashPassword(candidate.password, salt)

		if err := users.Upsert(ctx, candidate.username, hash, salt); err != nil {
			return fmt.Errorf("seed user %s: %w", candidate.username, err)
		}
		logger.Info("created default user", "username", candidate.username)
	}

	return nil
}
