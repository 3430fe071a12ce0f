package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"vmp-edtech-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthUsecase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := &domain.User{FirstName: "Ana", LastName: "Gómez", Email: " Ana@VMP.test", Password: "secreto123"}
	require.NoError(t, env.auth.Register(ctx, user))
	assert.Equal(t, "ana@vmp.test", user.Email)
	assert.Equal(t, domain.RoleStudent, user.Role)
	assert.NotEqual(t, "secreto123", user.Password)

	t.Run("Email is unique", func(t *testing.T) {
		dup := &domain.User{FirstName: "A", LastName: "B", Email: "ana@vmp.test", Password: "x"}
		assert.ErrorIs(t, env.auth.Register(ctx, dup), domain.ErrEmailTaken)
	})

	t.Run("Unknown company is refused", func(t *testing.T) {
		missing := uint(42)
		u := &domain.User{FirstName: "A", LastName: "B", Email: "b@vmp.test", Password: "x", CompanyID: &missing}
		assert.ErrorIs(t, env.auth.Register(ctx, u), domain.ErrInvalidInput)
	})

	t.Run("Login", func(t *testing.T) {
		token, got, err := env.auth.Login(ctx, "ANA@vmp.test", "secreto123")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, user.ID, got.ID)

		_, _, err = env.auth.Login(ctx, "ana@vmp.test", "otra")
		assert.ErrorIs(t, err, domain.ErrInvalidLogin)

		_, _, err = env.auth.Login(ctx, "nadie@vmp.test", "secreto123")
		assert.ErrorIs(t, err, domain.ErrInvalidLogin)
	})

	t.Run("Inactive user cannot log in", func(t *testing.T) {
		require.NoError(t, env.db.Model(&domain.User{}).Where("id = ?", user.ID).Update("active", false).Error)
		_, _, err := env.auth.Login(ctx, "ana@vmp.test", "secreto123")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Super admin is created once", func(t *testing.T) {
		require.NoError(t, env.auth.EnsureSuperAdmin(ctx, "root@vmp.test", "cambiar"))
		require.NoError(t, env.auth.EnsureSuperAdmin(ctx, "root@vmp.test", "cambiar"))
		_, admin, err := env.auth.Login(ctx, "root@vmp.test", "cambiar")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSuperAdmin, admin.Role)

		me, err := env.auth.Me(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, "root@vmp.test", me.Email)
	})
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "ana@vmp.test", domain.RoleStudent, nil)

	const linkPrefix = "https://vmp.test/reset-password/"
	tokenFor := func(t *testing.T, email string) string {
		t.Helper()
		link := env.notifier.resetURL(email)
		require.True(t, strings.HasPrefix(link, linkPrefix), link)
		return strings.TrimPrefix(link, linkPrefix)
	}

	t.Run("Unknown email gets no link and no error", func(t *testing.T) {
		require.NoError(t, env.auth.ForgotPassword(ctx, "nadie@vmp.test"))
		assert.Empty(t, env.notifier.resetURL("nadie@vmp.test"))
	})

	t.Run("Link resets the password exactly once", func(t *testing.T) {
		require.NoError(t, env.auth.ForgotPassword(ctx, " ANA@vmp.test "))
		token := tokenFor(t, "ana@vmp.test")

		assert.ErrorIs(t, env.auth.ResetPassword(ctx, token, "corta"), domain.ErrInvalidInput)
		require.NoError(t, env.auth.ResetPassword(ctx, token, "nueva123"))

		_, _, err := env.auth.Login(ctx, "ana@vmp.test", "nueva123")
		require.NoError(t, err)
		_, _, err = env.auth.Login(ctx, "ana@vmp.test", "secreto123")
		assert.ErrorIs(t, err, domain.ErrInvalidLogin)

		assert.ErrorIs(t, env.auth.ResetPassword(ctx, token, "otra1234"), domain.ErrResetTokenUsed)
	})

	t.Run("Unknown token", func(t *testing.T) {
		assert.ErrorIs(t, env.auth.ResetPassword(ctx, "no-existe", "nueva123"), domain.ErrResetTokenInvalid)
	})

	t.Run("Expired link", func(t *testing.T) {
		require.NoError(t, env.auth.ForgotPassword(ctx, "ana@vmp.test"))
		token := tokenFor(t, "ana@vmp.test")
		require.NoError(t, env.db.Model(&domain.PasswordResetToken{}).
			Where("token = ?", token).
			Update("expires_at", time.Now().Add(-time.Minute)).Error)

		assert.ErrorIs(t, env.auth.ResetPassword(ctx, token, "nueva456"), domain.ErrResetTokenExpired)
	})

	t.Run("Mail failure does not fail the request", func(t *testing.T) {
		env.notifier.err = errors.New("sendgrid down")
		defer func() { env.notifier.err = nil }()

		require.NoError(t, env.auth.ForgotPassword(ctx, "ana@vmp.test"))
		var issued int64
		require.NoError(t, env.db.Model(&domain.PasswordResetToken{}).Count(&issued).Error)
		assert.Equal(t, int64(3), issued)
	})
}
