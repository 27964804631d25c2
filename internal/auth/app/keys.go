package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/coachhub/platform/pkg/jwtx"
)

// Development secrets, used only when none are configured outside prod.
const (
	devAccessSecret  = "dev-only-access-secret-change-me-0123456789"
	devRefreshSecret = "dev-only-refresh-secret-change-me-0123456789"
)

var ErrSameSecrets = errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")

// InitTokenKeys builds the access and refresh signing keys.
//
// Missing secrets fall back to built-in development values with a warning,
// except when ENV=prod where they are required. Both keys verify the
// configured issuer.
func InitTokenKeys(cfg Config, logger *slog.Logger) (access, refresh *jwtx.HS256Key, err error) {
	accessSecret, err := secretOrDefault(cfg, "JWT_ACCESS_SECRET", cfg.AccessSecret, devAccessSecret, logger)
	if err != nil {
		return nil, nil, err
	}
	refreshSecret, err := secretOrDefault(cfg, "JWT_REFRESH_SECRET", cfg.RefreshSecret, devRefreshSecret, logger)
	if err != nil {
		return nil, nil, err
	}
	if accessSecret == refreshSecret {
		return nil, nil, ErrSameSecrets
	}

	opts := jwtx.VerifyOptions{Issuer: cfg.Issuer}
	if access, err = jwtx.NewHS256([]byte(accessSecret), opts); err != nil {
		return nil, nil, fmt.Errorf("JWT_ACCESS_SECRET: %w", err)
	}
	if refresh, err = jwtx.NewHS256([]byte(refreshSecret), opts); err != nil {
		return nil, nil, fmt.Errorf("JWT_REFRESH_SECRET: %w", err)
	}

	logger.Info("token keys initialized",
		"alg", access.Alg(),
		"issuer", cfg.Issuer,
		"access_ttl", cfg.AccessTTL,
		"refresh_ttl", cfg.RefreshTTL,
	)
	return access, refresh, nil
}

func secretOrDefault(cfg Config, name, value, fallback string, logger *slog.Logger) (string, error) {
	if value != "" {
		return value, nil
	}
	if cfg.Env == "prod" {
		return "", fmt.Errorf("%s is required when ENV=prod", name)
	}
	logger.Warn("using built-in development secret, set it before deploying", "env_var", name)
	return fallback, nil
}
