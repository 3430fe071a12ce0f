package usecase

import (
	"context"
	"testing"
	"time"

	"vmp-edtech-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseMetrics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cargo := &domain.Course{Code: "CP-01", Name: "Carga Pesada", Active: true}
	require.NoError(t, env.courses.CreateCourse(ctx, cargo))
	theory := &domain.Module{CourseID: cargo.ID, Title: "Estiba", Kind: domain.KindTheory}
	require.NoError(t, env.courses.AddModule(ctx, theory))
	empty := &domain.Course{Code: "4X4-01", Name: "Manejo 4x4", Active: true}
	require.NoError(t, env.courses.CreateCourse(ctx, empty))

	for i, email := range []string{"ana@vmp.test", "beto@vmp.test", "carla@vmp.test"} {
		learner := env.register(t, email, domain.RoleStudent, nil)
		_, err := env.enrollments.Enroll(ctx, learner, cargo.ID)
		require.NoError(t, err)
		if i == 0 {
			_, err = env.enrollments.CompleteModule(ctx, learner.UserID, cargo.ID, theory.ID, nil, nil)
			require.NoError(t, err)
		}
	}

	metrics, err := env.dashboard.CourseMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	byCode := map[string]domain.CourseMetrics{}
	for _, m := range metrics {
		byCode[m.Code] = m
	}

	t.Run("Counts enrollments completions and credentials", func(t *testing.T) {
		m := byCode["CP-01"]
		assert.Equal(t, cargo.ID, m.ID)
		assert.Equal(t, "Carga Pesada", m.Name)
		assert.Equal(t, int64(3), m.TotalEnrollments)
		assert.Equal(t, int64(1), m.CompletedEnrollments)
		assert.Equal(t, int64(1), m.TotalCredentials)
		assert.Equal(t, 33.33, m.CompletionRate)
	})

	t.Run("Course without learners has a zero rate", func(t *testing.T) {
		m := byCode["4X4-01"]
		assert.Zero(t, m.TotalEnrollments)
		assert.Zero(t, m.CompletionRate)
	})
}

func TestConversionMetrics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	env.dashboard.(*dashboardUsecase).now = func() time.Time { return now }

	seed := []struct {
		at     time.Time
		status domain.QuoteStatus
	}{
		{time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), domain.QuoteConverted},
		{time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), domain.QuotePending},
		{time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC), domain.QuoteConverted},
		{time.Date(2026, 3, 5, 8, 30, 0, 0, time.UTC), domain.QuoteRejected},
	}
	for _, s := range seed {
		q := &domain.Quote{Company: "C", ContactName: "N", Email: "n@c.test", Quantity: 5, Course: "defensivo", Modality: "online", Status: s.status, CreatedAt: s.at}
		require.NoError(t, env.db.Create(q).Error)
	}

	t.Run("Buckets the window by day and status", func(t *testing.T) {
		res, err := env.dashboard.ConversionMetrics(ctx, 30)
		require.NoError(t, err)
		assert.Equal(t, 30, res.PeriodDays)
		assert.Equal(t, now.AddDate(0, 0, -30), res.StartDate)
		assert.Equal(t, []domain.DailyQuotes{
			{Date: "2026-03-01", Total: 2, Pending: 1, Converted: 1},
			{Date: "2026-03-05", Total: 1, Rejected: 1},
		}, res.Data)
	})

	t.Run("Wider window reaches older quotes", func(t *testing.T) {
		res, err := env.dashboard.ConversionMetrics(ctx, 90)
		require.NoError(t, err)
		require.Len(t, res.Data, 3)
		assert.Equal(t, "2026-01-01", res.Data[0].Date)
		assert.Equal(t, 1, res.Data[0].Converted)
	})

	t.Run("Out of range days fall back to thirty", func(t *testing.T) {
		for _, days := range []int{0, -7, 366} {
			res, err := env.dashboard.ConversionMetrics(ctx, days)
			require.NoError(t, err)
			assert.Equal(t, 30, res.PeriodDays)
			assert.Len(t, res.Data, 2)
		}
	})

	t.Run("Empty window", func(t *testing.T) {
		env.dashboard.(*dashboardUsecase).now = func() time.Time { return now.AddDate(1, 0, 0) }
		defer func() { env.dashboard.(*dashboardUsecase).now = func() time.Time { return now } }()

		res, err := env.dashboard.ConversionMetrics(ctx, 7)
		require.NoError(t, err)
		assert.NotNil(t, res.Data)
		assert.Empty(t, res.Data)
	})
}
