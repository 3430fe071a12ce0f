package usecase

import (
	"context"
	"testing"

	"vmp-edtech-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestUserUsecase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sur := &domain.Company{Name: "Transportes Sur", CUIT: "30-1"}
	require.NoError(t, env.companies.Create(ctx, sur))
	norte := &domain.Company{Name: "Logística Norte", CUIT: "30-2"}
	require.NoError(t, env.companies.Create(ctx, norte))

	admin := env.register(t, "root@vmp.test", domain.RoleSuperAdmin, nil)
	instructor := env.register(t, "inst@sur.test", domain.RoleInstructor, &sur.ID)
	ana := env.register(t, "ana@sur.test", domain.RoleStudent, &sur.ID)
	beto := env.register(t, "beto@norte.test", domain.RoleStudent, &norte.ID)

	t.Run("Instructor only creates learners of their company", func(t *testing.T) {
		staff := &domain.User{FirstName: "X", LastName: "Y", Email: "x@sur.test", Password: "secreto123", Role: domain.RoleInstructor, CompanyID: &sur.ID}
		assert.ErrorIs(t, env.users.Create(ctx, instructor, staff), domain.ErrForbidden)

		foreign := &domain.User{FirstName: "X", LastName: "Y", Email: "x@norte.test", Password: "secreto123", CompanyID: &norte.ID}
		assert.ErrorIs(t, env.users.Create(ctx, instructor, foreign), domain.ErrForbidden)

		own := &domain.User{FirstName: "Carla", LastName: "Díaz", Email: "carla@sur.test", Password: "secreto123", CompanyID: &sur.ID}
		require.NoError(t, env.users.Create(ctx, instructor, own))
		assert.Equal(t, domain.RoleStudent, own.Role)

		assert.ErrorIs(t, env.users.Create(ctx, ana, &domain.User{Email: "z@sur.test"}), domain.ErrForbidden)
	})

	t.Run("Instructor list stays inside their company", func(t *testing.T) {
		users, err := env.users.List(ctx, instructor, domain.UserFilter{CompanyID: &norte.ID})
		require.NoError(t, err)
		require.NotEmpty(t, users)
		for _, u := range users {
			require.NotNil(t, u.CompanyID)
			assert.Equal(t, sur.ID, *u.CompanyID)
		}

		_, err = env.users.List(ctx, ana, domain.UserFilter{})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = env.users.List(ctx, domain.Actor{UserID: 99, Role: domain.RoleInstructor}, domain.UserFilter{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Admin filters by role and company", func(t *testing.T) {
		users, err := env.users.List(ctx, admin, domain.UserFilter{Role: domain.RoleInstructor})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "inst@sur.test", users[0].Email)

		users, err = env.users.List(ctx, admin, domain.UserFilter{CompanyID: &norte.ID})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, beto.UserID, users[0].ID)
	})

	t.Run("Who can read whom", func(t *testing.T) {
		_, err := env.users.Get(ctx, ana, ana.UserID)
		assert.NoError(t, err)
		_, err = env.users.Get(ctx, ana, beto.UserID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = env.users.Get(ctx, instructor, ana.UserID)
		assert.NoError(t, err)
		_, err = env.users.Get(ctx, instructor, beto.UserID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = env.users.Get(ctx, instructor, admin.UserID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = env.users.Get(ctx, admin, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Self update cannot touch role or activation", func(t *testing.T) {
		_, err := env.users.Update(ctx, ana, ana.UserID, domain.UserUpdate{Role: ptr(domain.RoleInstructor)})
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = env.users.Update(ctx, ana, ana.UserID, domain.UserUpdate{Active: ptr(false)})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		updated, err := env.users.Update(ctx, ana, ana.UserID, domain.UserUpdate{FirstName: ptr("Ana María"), Password: ptr("nueva123")})
		require.NoError(t, err)
		assert.Equal(t, "Ana María", updated.FirstName)
		_, _, err = env.auth.Login(ctx, "ana@sur.test", "nueva123")
		assert.NoError(t, err)

		_, err = env.users.Update(ctx, ana, ana.UserID, domain.UserUpdate{Password: ptr("corta")})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Instructor cannot move a learner to another company", func(t *testing.T) {
		_, err := env.users.Update(ctx, instructor, ana.UserID, domain.UserUpdate{CompanyID: &norte.ID})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Email stays unique", func(t *testing.T) {
		_, err := env.users.Update(ctx, admin, ana.UserID, domain.UserUpdate{Email: ptr("INST@sur.test")})
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("Admin changes role and company", func(t *testing.T) {
		updated, err := env.users.Update(ctx, admin, beto.UserID, domain.UserUpdate{Role: ptr(domain.RoleInstructor), CompanyID: &sur.ID})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleInstructor, updated.Role)
		assert.Equal(t, sur.ID, *updated.CompanyID)

		_, err = env.users.Update(ctx, admin, beto.UserID, domain.UserUpdate{CompanyID: ptr(uint(404))})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Delete deactivates learners with enrollments", func(t *testing.T) {
		dc := env.createDrivingCourse(t)
		_, err := env.enrollments.Enroll(ctx, ana, dc.course.ID)
		require.NoError(t, err)

		deactivated, err := env.users.Delete(ctx, admin, ana.UserID)
		require.NoError(t, err)
		assert.True(t, deactivated)
		kept, err := env.users.Get(ctx, admin, ana.UserID)
		require.NoError(t, err)
		assert.False(t, kept.Active)
	})

	t.Run("Delete removes users without enrollments", func(t *testing.T) {
		loner := env.register(t, "solo@sur.test", domain.RoleStudent, &sur.ID)

		_, err := env.users.Delete(ctx, domain.Actor{UserID: 98, Role: domain.RoleInstructor, CompanyID: &norte.ID}, loner.UserID)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		deactivated, err := env.users.Delete(ctx, instructor, loner.UserID)
		require.NoError(t, err)
		assert.False(t, deactivated)
		_, err = env.users.Get(ctx, admin, loner.UserID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Nobody deletes themselves", func(t *testing.T) {
		_, err := env.users.Delete(ctx, admin, admin.UserID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}
