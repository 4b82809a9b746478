package sessionauth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/deniswachira/sessionauth/internal"
	"github.com/deniswachira/sessionauth/internal/errutil"
	"github.com/deniswachira/sessionauth/user"
)

// GetResetPasswordToken issues a one-time reset token for email and stores it
// on the user, replacing any token issued before. Unknown emails fail with
// ErrUnregisteredEmail and nothing is generated.
func (e *Engine) GetResetPasswordToken(ctx context.Context, email string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if !e.config.PasswordReset.Enabled {
		return "", ErrPasswordResetDisabled
	}

	u, err := e.users.FindOne(ctx, user.Filter{user.FieldEmail: email})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			e.metricInc(MetricResetTokenUnregistered)
			return "", oops.Code("UNREGISTERED_EMAIL").Wrap(ErrUnregisteredEmail)
		}
		return "", err
	}

	token, err := internal.NewResetToken()
	if err != nil {
		return "", oops.Code("RESET_TOKEN_GENERATION_FAILED").With("user_id", u.ID).Wrap(err)
	}
	if err := e.users.Update(ctx, u.ID, user.Update{user.FieldResetToken: user.Value(token)}); err != nil {
		return "", err
	}

	e.metricInc(MetricResetTokenIssued)
	e.logger.InfoContext(ctx, "reset token issued", "user_id", u.ID)
	return token, nil
}

// UpdatePassword redeems resetToken: the user's password becomes newPassword
// and the token is cleared in the same update, so it cannot be used again.
// Unknown or already redeemed tokens fail with ErrInvalidResetToken.
func (e *Engine) UpdatePassword(ctx context.Context, resetToken, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !e.config.PasswordReset.Enabled {
		return ErrPasswordResetDisabled
	}
	if resetToken == "" {
		return e.invalidResetToken()
	}
	if err := e.checkPasswordPolicy(newPassword); err != nil {
		return err
	}

	// Look the token up before paying for argon2.
	u, err := e.users.FindOne(ctx, user.Filter{user.FieldResetToken: resetToken})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return e.invalidResetToken()
		}
		return err
	}

	hashed, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	// The token is the write condition, so only one redemption can win.
	err = e.users.UpdateIf(ctx, u.ID, user.Filter{user.FieldResetToken: resetToken}, user.Update{
		user.FieldHashedPassword: user.Value(hashed),
		user.FieldResetToken:     nil,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return e.invalidResetToken()
		}
		return err
	}

	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, u.Email); err != nil {
			errutil.LogError(ctx, e.logger, slog.LevelWarn, "login throttle unavailable", err)
		}
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.logger.InfoContext(ctx, "password reset", "user_id", u.ID)
	return nil
}

func (e *Engine) invalidResetToken() error {
	e.metricInc(MetricPasswordResetInvalidToken)
	return oops.Code("INVALID_RESET_TOKEN").Wrap(ErrInvalidResetToken)
}
