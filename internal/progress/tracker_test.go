package progress_test

import (
	"testing"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeModuleCourse() []domain.Module {
	// stored out of order on purpose
	return []domain.Module{
		{ID: "m3", Title: "Práctica", Kind: domain.KindPractice, Order: 3,
			Tasks: []domain.PracticalTask{{ID: "t1", Description: "Foto del vehículo", RequiresPhoto: true}}},
		{ID: "m1", Title: "Teoría", Kind: domain.KindTheory, Order: 1},
		{ID: "m2", Title: "Quiz", Kind: domain.KindQuiz, Order: 2},
	}
}

func statuses(states []domain.ModuleState) []domain.ModuleStatus {
	out := make([]domain.ModuleStatus, len(states))
	for i, s := range states {
		out[i] = s.Status
	}
	return out
}

func TestComputeModuleStatus(t *testing.T) {
	modules := threeModuleCourse()

	t.Run("Fresh enrollment opens only the first module", func(t *testing.T) {
		states, err := progress.ComputeModuleStatus(modules, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"m1", "m2", "m3"}, []string{states[0].ModuleID, states[1].ModuleID, states[2].ModuleID})
		assert.Equal(t, []domain.ModuleStatus{domain.StatusAvailable, domain.StatusLocked, domain.StatusLocked}, statuses(states))
	})

	t.Run("Started module is in progress", func(t *testing.T) {
		states, err := progress.ComputeModuleStatus(modules, nil, []string{"m1"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, states[0].Status)
	})

	t.Run("Completing a module unlocks only the next one", func(t *testing.T) {
		states, err := progress.ComputeModuleStatus(modules, []string{"m1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []domain.ModuleStatus{domain.StatusCompleted, domain.StatusAvailable, domain.StatusLocked}, statuses(states))
	})

	t.Run("Started but locked module stays locked", func(t *testing.T) {
		states, err := progress.ComputeModuleStatus(modules, nil, []string{"m3"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusLocked, states[2].Status)
	})

	t.Run("All completed", func(t *testing.T) {
		states, err := progress.ComputeModuleStatus(modules, []string{"m3", "m2", "m1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []domain.ModuleStatus{domain.StatusCompleted, domain.StatusCompleted, domain.StatusCompleted}, statuses(states))
		assert.Nil(t, progress.NextModule(states))
	})

	t.Run("Completed module outside the course is an integrity error", func(t *testing.T) {
		_, err := progress.ComputeModuleStatus(modules, []string{"m1", "ghost"}, nil)
		assert.ErrorIs(t, err, domain.ErrUnknownModule)
	})

	t.Run("Started module outside the course is an integrity error", func(t *testing.T) {
		_, err := progress.ComputeModuleStatus(modules, nil, []string{"ghost"})
		assert.ErrorIs(t, err, domain.ErrUnknownModule)
	})

	t.Run("Duplicate order is rejected", func(t *testing.T) {
		dup := append(threeModuleCourse(), domain.Module{ID: "m4", Order: 2})
		_, err := progress.ComputeModuleStatus(dup, nil, nil)
		assert.ErrorIs(t, err, domain.ErrDuplicateOrder)
	})

	t.Run("Empty course", func(t *testing.T) {
		states, err := progress.ComputeModuleStatus(nil, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, states)
	})

	t.Run("Same input gives the same output", func(t *testing.T) {
		a, err := progress.ComputeModuleStatus(modules, []string{"m1"}, []string{"m2"})
		require.NoError(t, err)
		b, err := progress.ComputeModuleStatus(modules, []string{"m1"}, []string{"m2"})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestGatingHoldsForEveryCompletedPrefix(t *testing.T) {
	modules := make([]domain.Module, 6)
	ids := make([]string, 6)
	for i := range modules {
		ids[i] = string(rune('a' + i))
		modules[i] = domain.Module{ID: ids[i], Order: i * 10}
	}

	// every subset of completed modules
	for mask := 0; mask < 1<<len(ids); mask++ {
		var completed []string
		for i, id := range ids {
			if mask&(1<<i) != 0 {
				completed = append(completed, id)
			}
		}
		states, err := progress.ComputeModuleStatus(modules, completed, nil)
		require.NoError(t, err)

		for i := 1; i < len(states); i++ {
			if states[i].Status == domain.StatusAvailable || states[i].Status == domain.StatusInProgress {
				assert.Equal(t, domain.StatusCompleted, states[i-1].Status, "mask %b index %d", mask, i)
			}
		}
		pct := progress.Percentage(progress.CompletedCount(states), len(states))
		assert.Equal(t, len(completed) == len(ids), pct == 100, "mask %b", mask)
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, progress.Percentage(0, 0))
	assert.Equal(t, 0, progress.Percentage(0, 3))
	assert.Equal(t, 33, progress.Percentage(1, 3))
	assert.Equal(t, 67, progress.Percentage(2, 3))
	assert.Equal(t, 100, progress.Percentage(3, 3))
	assert.Equal(t, 50, progress.Percentage(1, 2))

	t.Run("One module short never rounds up to 100", func(t *testing.T) {
		assert.Equal(t, 99, progress.Percentage(199, 200))
		assert.Equal(t, 99, progress.Percentage(299, 300))
		assert.Equal(t, 99, progress.Percentage(999, 1000))
	})

	t.Run("100 only when every module is completed", func(t *testing.T) {
		for total := 1; total <= 1000; total++ {
			for _, completed := range []int{0, total - 1, total} {
				pct := progress.Percentage(completed, total)
				assert.Equal(t, completed == total, pct == 100, "%d/%d", completed, total)
				assert.True(t, pct >= 0 && pct <= 100, "%d/%d", completed, total)
			}
		}
	})
}

func TestNextModule(t *testing.T) {
	states, err := progress.ComputeModuleStatus(threeModuleCourse(), []string{"m1"}, nil)
	require.NoError(t, err)

	next := progress.NextModule(states)
	require.NotNil(t, next)
	assert.Equal(t, "m2", next.ModuleID)

	st, ok := progress.StatusOf(states, "m3")
	assert.True(t, ok)
	assert.Equal(t, domain.StatusLocked, st.Status)

	_, ok = progress.StatusOf(states, "nope")
	assert.False(t, ok)
}
