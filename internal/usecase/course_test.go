package usecase

import (
	"context"
	"testing"

	"vmp-edtech-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseModules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dc := env.createDrivingCourse(t)

	assert.Equal(t, 70, dc.course.PassingScore)
	assert.Equal(t, []int{1, 2, 3}, []int{dc.theory.Order, dc.quiz.Order, dc.practice.Order})
	for _, q := range dc.quiz.Questions {
		assert.NotEmpty(t, q.ID)
	}

	t.Run("Invalid modules are refused", func(t *testing.T) {
		bad := &domain.Module{CourseID: dc.course.ID, Title: "Quiz", Kind: domain.KindQuiz,
			Questions: []domain.Question{{Prompt: "¿?", Options: []string{"solo una"}}}}
		assert.ErrorIs(t, env.courses.AddModule(ctx, bad), domain.ErrInvalidInput)

		assert.ErrorIs(t, env.courses.AddModule(ctx, &domain.Module{CourseID: dc.course.ID, Title: "X", Kind: "VIDEO"}), domain.ErrInvalidInput)
		assert.ErrorIs(t, env.courses.AddModule(ctx, &domain.Module{CourseID: dc.course.ID, Title: "P", Kind: domain.KindPractice}), domain.ErrInvalidInput)

		err := env.courses.AddModule(ctx, &domain.Module{CourseID: 999, Title: "T", Kind: domain.KindTheory})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Duplicate order is refused", func(t *testing.T) {
		dup := &domain.Module{CourseID: dc.course.ID, Title: "Otra", Kind: domain.KindTheory, Order: 2}
		assert.ErrorIs(t, env.courses.AddModule(ctx, dup), domain.ErrDuplicateOrder)
	})

	t.Run("Update keeps course and order", func(t *testing.T) {
		upd := &domain.Module{ID: dc.theory.ID, Title: "Normas actualizadas", Kind: domain.KindTheory}
		require.NoError(t, env.courses.UpdateModule(ctx, upd))
		got, err := env.courses.GetModule(ctx, dc.theory.ID)
		require.NoError(t, err)
		assert.Equal(t, "Normas actualizadas", got.Title)
		assert.Equal(t, 1, got.Order)
		assert.Equal(t, dc.course.ID, got.CourseID)
	})

	t.Run("Learner view hides the answers", func(t *testing.T) {
		student := env.register(t, "alumno@vmp.test", domain.RoleStudent, nil)
		_, err := env.enrollments.Enroll(ctx, student, dc.course.ID)
		require.NoError(t, err)

		sm, err := env.courses.GetModuleForStudent(ctx, student.UserID, dc.course.ID, dc.theory.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAvailable, sm.Status)

		_, err = env.enrollments.CompleteModule(ctx, student.UserID, dc.course.ID, dc.theory.ID, nil, nil)
		require.NoError(t, err)
		sm, err = env.courses.GetModuleForStudent(ctx, student.UserID, dc.course.ID, dc.quiz.ID)
		require.NoError(t, err)
		require.Len(t, sm.Questions, 5)
		assert.Equal(t, []string{"correcta", "incorrecta"}, sm.Questions[0].Options)
	})

	t.Run("Modules of a course with learners cannot be deleted", func(t *testing.T) {
		assert.ErrorIs(t, env.courses.DeleteModule(ctx, dc.practice.ID), domain.ErrConflict)
	})

	t.Run("Course update", func(t *testing.T) {
		upd := &domain.Course{ID: dc.course.ID, Code: "MD-01", Name: "Manejo Defensivo II", Active: false}
		require.NoError(t, env.courses.UpdateCourse(ctx, upd))
		assert.Equal(t, 70, upd.PassingScore)
		assert.False(t, upd.Active)

		assert.ErrorIs(t, env.courses.UpdateCourse(ctx, &domain.Course{ID: dc.course.ID, Code: "", Name: "x"}), domain.ErrInvalidInput)
	})
}

func TestDeleteCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "root@vmp.test", domain.RoleSuperAdmin, nil)

	t.Run("Course with enrollments is only deactivated", func(t *testing.T) {
		dc := env.createDrivingCourse(t)
		learner := env.register(t, "ana@vmp.test", domain.RoleStudent, nil)
		_, err := env.enrollments.Enroll(ctx, learner, dc.course.ID)
		require.NoError(t, err)

		deactivated, err := env.courses.DeleteCourse(ctx, dc.course.ID)
		require.NoError(t, err)
		assert.True(t, deactivated)

		detail, err := env.courses.GetCourseDetails(ctx, dc.course.ID, admin)
		require.NoError(t, err)
		assert.False(t, detail.Course.Active)
		modules, err := env.modules.GetByCourseID(ctx, dc.course.ID)
		require.NoError(t, err)
		assert.Len(t, modules, 3)
	})

	t.Run("Course without enrollments is removed with its modules", func(t *testing.T) {
		course := &domain.Course{Code: "CP-01", Name: "Carga Pesada", Active: true}
		require.NoError(t, env.courses.CreateCourse(ctx, course))
		require.NoError(t, env.courses.AddModule(ctx, &domain.Module{CourseID: course.ID, Title: "Estiba", Kind: domain.KindTheory}))

		deactivated, err := env.courses.DeleteCourse(ctx, course.ID)
		require.NoError(t, err)
		assert.False(t, deactivated)

		_, err = env.courses.GetCourseDetails(ctx, course.ID, admin)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		modules, err := env.modules.GetByCourseID(ctx, course.ID)
		require.NoError(t, err)
		assert.Empty(t, modules)
	})

	t.Run("Unknown course", func(t *testing.T) {
		_, err := env.courses.DeleteCourse(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
