package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// SeedAdmin ensures the configured superuser account exists. It is a no-op
// when the username is already taken, which makes it safe to run on every
// startup.
func SeedAdmin(ctx context.Context, users Users, cfg AdminConfig, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	if !cfg.Enabled() {
		return nil
	}

	if _, err := users.FindByUsername(ctx, cfg.Username); err == nil {
		logger.Debug("admin account %q already present, skipping seed", cfg.Username)
		return nil
	} else if !goerrors.Is(err, ErrUserNotFound) {
		return err
	}

	hash, err := HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	admin, err := users.Create(ctx, &User{
		Email:        cfg.Email,
		Username:     cfg.Username,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  true,
	})
	if err != nil {
		return err
	}

	logger.Info("seeded admin account %q with id %d", admin.Username, admin.ID)

	return nil
}
