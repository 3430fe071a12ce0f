package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/progress"
	"vmp-edtech-backend/pkg/logger"

	"gorm.io/datatypes"
)

type quizUsecase struct {
	tracker
	examRepo domain.ExamRepository
	log      *logger.Logger
}

func NewQuizUsecase(
	mr domain.ModuleRepository,
	er domain.EnrollmentRepository,
	pr domain.ModuleProgressRepository,
	xr domain.ExamRepository,
	log *logger.Logger,
) domain.QuizUsecase {
	return &quizUsecase{
		tracker:  tracker{moduleRepo: mr, progressRepo: pr, enrollmentRepo: er},
		examRepo: xr,
		log:      log,
	}
}

// SubmitQuiz grades one attempt, stores it as an Exam and keeps the best score
// on the module progress row. Attempts are not limited.
func (uc *quizUsecase) SubmitQuiz(ctx context.Context, userID, courseID uint, moduleID string, answers map[string]int) (*domain.QuizResult, error) {
	module, err := uc.moduleRepo.GetByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if module.CourseID != courseID {
		return nil, fmt.Errorf("module %w", domain.ErrNotFound)
	}
	if module.Kind != domain.KindQuiz {
		return nil, domain.ErrWrongModuleKind
	}

	enrollment, err := uc.enrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	cs, err := uc.load(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	_, state, err := cs.module(moduleID)
	if err != nil {
		return nil, err
	}
	if state.Status == domain.StatusLocked {
		return nil, domain.ErrModuleLocked
	}

	result := progress.GradeQuiz(module.Questions, answers, enrollment.Course.Threshold())

	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	exam := &domain.Exam{
		UserID:   userID,
		CourseID: courseID,
		ModuleID: moduleID,
		Answers:  datatypes.JSON(raw),
		Score:    result.Score,
		Passed:   result.Passed,
		Correct:  result.Correct,
		Total:    result.Total,
	}
	if err := uc.examRepo.Create(ctx, exam); err != nil {
		return nil, err
	}

	if state.Status != domain.StatusCompleted {
		row, err := uc.markStarted(ctx, enrollment, state)
		if err != nil {
			return nil, err
		}
		if row.QuizScore == nil || *row.QuizScore < result.Score {
			row.QuizScore = &result.Score
			if err := uc.progressRepo.Update(ctx, row); err != nil {
				return nil, err
			}
		}
	}

	uc.log.Info("quiz submitted",
		"user_id", userID, "module_id", moduleID,
		"score", result.Score, "passed", result.Passed)
	return &result, nil
}
