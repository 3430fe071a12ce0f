package usecase

import (
	"bytes"
	"context"
	"io"
	"testing"

	"vmp-edtech-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reachPractice completes the theory and quiz modules of dc for the learner.
func (e *testEnv) reachPractice(t *testing.T, dc drivingCourse, learner domain.Actor) {
	t.Helper()
	ctx := context.Background()
	_, err := e.enrollments.Enroll(ctx, learner, dc.course.ID)
	require.NoError(t, err)
	_, err = e.enrollments.CompleteModule(ctx, learner.UserID, dc.course.ID, dc.theory.ID, nil, nil)
	require.NoError(t, err)
	_, err = e.quizzes.SubmitQuiz(ctx, learner.UserID, dc.course.ID, dc.quiz.ID, dc.answers(5))
	require.NoError(t, err)
	_, err = e.enrollments.CompleteModule(ctx, learner.UserID, dc.course.ID, dc.quiz.ID, nil, nil)
	require.NoError(t, err)
}

func TestRejectedEvidence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dc := env.createDrivingCourse(t)
	student := env.register(t, "alumno@vmp.test", domain.RoleStudent, nil)
	instructor := env.register(t, "instructor@vmp.test", domain.RoleInstructor, nil)
	env.reachPractice(t, dc, student)
	taskID := dc.practice.Tasks[0].ID

	file, size := photo()
	first, err := env.evidence.Upload(ctx, student.UserID, taskID, file, "foto.jpg", size, "primer intento")
	require.NoError(t, err)
	assert.Equal(t, domain.EvidencePending, first.Status)

	pending, err := env.evidence.ListPending(ctx, instructor)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	rejected, err := env.evidence.Evaluate(ctx, instructor, first.ID, domain.EvidenceRejected, "foto borrosa")
	require.NoError(t, err)
	assert.Equal(t, domain.EvidenceRejected, rejected.Status)
	assert.Equal(t, "foto borrosa", rejected.Feedback)

	_, err = env.enrollments.CompleteModule(ctx, student.UserID, dc.course.ID, dc.practice.ID, nil, nil)
	assert.ErrorIs(t, err, domain.ErrPracticeIncomplete)

	p, err := env.enrollments.Progress(ctx, student.UserID, dc.course.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, p.Modules[2].Status)

	file, size = photo()
	second, err := env.evidence.Upload(ctx, student.UserID, taskID, file, "foto2.png", size, "")
	require.NoError(t, err)
	assert.Equal(t, domain.EvidencePending, second.Status)
	assert.NotEqual(t, first.ID, second.ID)

	t.Run("A decision cannot be changed", func(t *testing.T) {
		_, err := env.evidence.Evaluate(ctx, instructor, first.ID, domain.EvidenceApproved, "")
		assert.ErrorIs(t, err, domain.ErrEvidenceAlreadyEvaluated)
	})

	t.Run("Learner sees both uploads", func(t *testing.T) {
		list, err := env.evidence.ListByTask(ctx, student.UserID, taskID)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("Approval then blocks new uploads and deletion", func(t *testing.T) {
		_, err := env.evidence.Evaluate(ctx, instructor, second.ID, domain.EvidenceApproved, "ok")
		require.NoError(t, err)

		file, size := photo()
		_, err = env.evidence.Upload(ctx, student.UserID, taskID, file, "foto3.jpg", size, "")
		assert.ErrorIs(t, err, domain.ErrEvidenceAlreadyApproved)

		assert.ErrorIs(t, env.evidence.Delete(ctx, student.UserID, second.ID), domain.ErrEvidenceLocked)

		res, err := env.enrollments.CompleteModule(ctx, student.UserID, dc.course.ID, dc.practice.ID, nil, nil)
		require.NoError(t, err)
		assert.True(t, res.CourseCompleted)
	})
}

func TestEvidenceRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dc := env.createDrivingCourse(t)
	taskID := dc.practice.Tasks[0].ID

	acme := &domain.Company{Name: "Acme", CUIT: "30-1"}
	require.NoError(t, env.companies.Create(ctx, acme))
	other := &domain.Company{Name: "Otra", CUIT: "30-2"}
	require.NoError(t, env.companies.Create(ctx, other))

	student := env.register(t, "alumno@acme.test", domain.RoleStudent, &acme.ID)
	classmate := env.register(t, "companero@acme.test", domain.RoleStudent, &acme.ID)
	foreign := env.register(t, "instructor@otra.test", domain.RoleInstructor, &other.ID)
	local := env.register(t, "instructor@acme.test", domain.RoleInstructor, &acme.ID)

	t.Run("Upload before reaching the practice is refused", func(t *testing.T) {
		_, err := env.enrollments.Enroll(ctx, student, dc.course.ID)
		require.NoError(t, err)
		file, size := photo()
		_, err = env.evidence.Upload(ctx, student.UserID, taskID, file, "foto.jpg", size, "")
		assert.ErrorIs(t, err, domain.ErrModuleLocked)
	})

	t.Run("Invalid files are refused", func(t *testing.T) {
		file, size := photo()
		_, err := env.evidence.Upload(ctx, student.UserID, taskID, file, "foto.gif", size, "")
		assert.ErrorIs(t, err, domain.ErrInvalidFile)

		_, err = env.evidence.Upload(ctx, student.UserID, taskID, bytes.NewReader(nil), "foto.jpg", MaxPhotoSize+1, "")
		assert.ErrorIs(t, err, domain.ErrInvalidFile)

		_, err = env.evidence.Upload(ctx, student.UserID, taskID, bytes.NewReader(nil), "foto.jpg", 0, "")
		assert.ErrorIs(t, err, domain.ErrInvalidFile)
	})

	_, err := env.enrollments.CompleteModule(ctx, student.UserID, dc.course.ID, dc.theory.ID, nil, nil)
	require.NoError(t, err)
	_, err = env.quizzes.SubmitQuiz(ctx, student.UserID, dc.course.ID, dc.quiz.ID, dc.answers(4))
	require.NoError(t, err)
	_, err = env.enrollments.CompleteModule(ctx, student.UserID, dc.course.ID, dc.quiz.ID, nil, nil)
	require.NoError(t, err)

	file, size := photo()
	ev, err := env.evidence.Upload(ctx, student.UserID, taskID, file, "foto.JPG", size, "")
	require.NoError(t, err)

	t.Run("Review queue is scoped by company", func(t *testing.T) {
		list, err := env.evidence.ListPending(ctx, foreign)
		require.NoError(t, err)
		assert.Empty(t, list)

		list, err = env.evidence.ListPending(ctx, local)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		_, err = env.evidence.ListPending(ctx, student)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = env.evidence.Evaluate(ctx, foreign, ev.ID, domain.EvidenceApproved, "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Decision must be final", func(t *testing.T) {
		_, err := env.evidence.Evaluate(ctx, local, ev.ID, domain.EvidencePending, "")
		assert.ErrorIs(t, err, domain.ErrInvalidDecision)
	})

	t.Run("Photo is visible to owner and reviewer only", func(t *testing.T) {
		rc, info, err := env.evidence.Photo(ctx, student, ev.ID)
		require.NoError(t, err)
		data, _ := io.ReadAll(rc)
		rc.Close()
		assert.NotEmpty(t, data)
		assert.Equal(t, "image/jpeg", info.ContentType)

		_, _, err = env.evidence.Photo(ctx, local, ev.ID)
		assert.NoError(t, err)

		_, _, err = env.evidence.Photo(ctx, classmate, ev.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Only the owner deletes pending evidence", func(t *testing.T) {
		assert.ErrorIs(t, env.evidence.Delete(ctx, classmate.UserID, ev.ID), domain.ErrForbidden)
		require.NoError(t, env.evidence.Delete(ctx, student.UserID, ev.ID))
		assert.Empty(t, env.photos.files)

		_, _, err := env.evidence.Photo(ctx, student, ev.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
