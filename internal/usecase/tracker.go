package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/progress"
)

// tracker loads the module states of one enrollment. It is embedded by every
// usecase that has to respect module gating.
type tracker struct {
	moduleRepo     domain.ModuleRepository
	progressRepo   domain.ModuleProgressRepository
	enrollmentRepo domain.EnrollmentRepository
}

type courseState struct {
	modules []domain.Module
	rows    map[string]*domain.ModuleProgress
	states  []domain.ModuleState
}

func (t tracker) load(ctx context.Context, userID, courseID uint) (*courseState, error) {
	modules, err := t.moduleRepo.GetByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	rows, err := t.progressRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	cs := &courseState{modules: modules, rows: make(map[string]*domain.ModuleProgress, len(rows))}
	var completed, started []string
	for i := range rows {
		cs.rows[rows[i].ModuleID] = &rows[i]
		if rows[i].IsComplete {
			completed = append(completed, rows[i].ModuleID)
		} else {
			started = append(started, rows[i].ModuleID)
		}
	}

	cs.states, err = progress.ComputeModuleStatus(modules, completed, started)
	if err != nil {
		return nil, fmt.Errorf("course %d: %w", courseID, err)
	}
	return cs, nil
}

func (cs *courseState) module(moduleID string) (*domain.Module, domain.ModuleState, error) {
	state, ok := progress.StatusOf(cs.states, moduleID)
	if !ok {
		return nil, domain.ModuleState{}, fmt.Errorf("module %w", domain.ErrNotFound)
	}
	for i := range cs.modules {
		if cs.modules[i].ID == moduleID {
			return &cs.modules[i], state, nil
		}
	}
	return nil, domain.ModuleState{}, fmt.Errorf("module %w", domain.ErrNotFound)
}

func (cs *courseState) completedIDs() []string {
	ids := []string{}
	for _, st := range cs.states {
		if st.Status == domain.StatusCompleted {
			ids = append(ids, st.ModuleID)
		}
	}
	return ids
}

func (cs *courseState) view(enrollment *domain.Enrollment) *domain.CourseProgress {
	enrollment.CompletedModules = cs.completedIDs()
	return &domain.CourseProgress{
		Enrollment: *enrollment,
		Modules:    cs.states,
		Percentage: progress.Percentage(progress.CompletedCount(cs.states), len(cs.states)),
		Next:       progress.NextModule(cs.states),
	}
}

// enrollment returns the learner's enrollment or ErrNotEnrolled.
func (t tracker) enrollment(ctx context.Context, userID, courseID uint) (*domain.Enrollment, error) {
	enrollment, err := t.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotEnrolled
	}
	return enrollment, err
}

// markStarted records that the learner opened an AVAILABLE module and moves
// a NO_INICIADO enrollment to EN_PROGRESO.
func (t tracker) markStarted(ctx context.Context, enrollment *domain.Enrollment, state domain.ModuleState) (*domain.ModuleProgress, error) {
	if state.Status == domain.StatusLocked {
		return nil, domain.ErrModuleLocked
	}

	row, err := t.progressRepo.GetByUserAndModule(ctx, enrollment.UserID, state.ModuleID)
	if errors.Is(err, domain.ErrNotFound) {
		row = &domain.ModuleProgress{
			UserID:   enrollment.UserID,
			CourseID: enrollment.CourseID,
			ModuleID: state.ModuleID,
		}
		err = t.progressRepo.Create(ctx, row)
		if errors.Is(err, domain.ErrConflict) {
			row, err = t.progressRepo.GetByUserAndModule(ctx, enrollment.UserID, state.ModuleID)
		}
	}
	if err != nil {
		return nil, err
	}

	if enrollment.Status == domain.EnrollmentNotStarted {
		now := time.Now()
		enrollment.Status = domain.EnrollmentInProgress
		enrollment.StartedAt = &now
		if err := t.enrollmentRepo.Update(ctx, enrollment); err != nil {
			return nil, err
		}
	}
	return row, nil
}
