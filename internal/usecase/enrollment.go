package usecase

import (
	"context"
	"fmt"
	"time"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/progress"
	"vmp-edtech-backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type enrollmentUsecase struct {
	tracker
	courseRepo   domain.CourseRepository
	examRepo     domain.ExamRepository
	evidenceRepo domain.EvidenceRepository
	credentials  domain.CredentialUsecase
	log          *logger.Logger
}

func NewEnrollmentUsecase(
	cr domain.CourseRepository,
	mr domain.ModuleRepository,
	er domain.EnrollmentRepository,
	pr domain.ModuleProgressRepository,
	xr domain.ExamRepository,
	evr domain.EvidenceRepository,
	credentials domain.CredentialUsecase,
	log *logger.Logger,
) domain.EnrollmentUsecase {
	return &enrollmentUsecase{
		tracker:      tracker{moduleRepo: mr, progressRepo: pr, enrollmentRepo: er},
		courseRepo:   cr,
		examRepo:     xr,
		evidenceRepo: evr,
		credentials:  credentials,
		log:          log,
	}
}

func (uc *enrollmentUsecase) Enroll(ctx context.Context, actor domain.Actor, courseID uint) (*domain.Enrollment, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Active {
		return nil, fmt.Errorf("course %w", domain.ErrNotFound)
	}
	if !course.AvailableTo(actor.CompanyID) {
		return nil, fmt.Errorf("%w: course belongs to another company", domain.ErrForbidden)
	}

	enrollment := &domain.Enrollment{
		UserID:   actor.UserID,
		CourseID: courseID,
		Status:   domain.EnrollmentNotStarted,
	}
	if err := uc.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, err
	}
	enrollment.Course = *course
	enrollment.CompletedModules = []string{}

	uc.log.Info("learner enrolled", "user_id", actor.UserID, "course_id", courseID)
	return enrollment, nil
}

func (uc *enrollmentUsecase) GetEnrollment(ctx context.Context, userID, courseID uint) (*domain.Enrollment, error) {
	enrollment, err := uc.enrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	rows, err := uc.progressRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	enrollment.CompletedModules = []string{}
	for _, row := range rows {
		if row.IsComplete {
			enrollment.CompletedModules = append(enrollment.CompletedModules, row.ModuleID)
		}
	}
	return enrollment, nil
}

func (uc *enrollmentUsecase) MyCourses(ctx context.Context, userID uint) (*domain.MyCourses, error) {
	enrollments, err := uc.enrollmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.MyCourseItem, len(enrollments))
	var credentials []domain.Credential

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range enrollments {
		g.Go(func() error {
			e := enrollments[i]
			cs, err := uc.load(gctx, userID, e.CourseID)
			if err != nil {
				return err
			}
			item := domain.MyCourseItem{
				ID:            e.Course.ID,
				Name:          e.Course.Name,
				Description:   e.Course.Description,
				Code:          e.Course.Code,
				DurationHours: e.Course.DurationHours,
				Progress:      e.Progress,
				Status:        e.Status,
			}
			if next := progress.NextModule(cs.states); next != nil {
				item.NextActivity = next.Title
			}
			items[i] = item
			return nil
		})
	}
	g.Go(func() error {
		var err error
		credentials, err = uc.credentials.GetUserCredentials(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &domain.MyCourses{Courses: items}
	out.Stats.Credentials = len(credentials)
	for _, e := range enrollments {
		switch e.Status {
		case domain.EnrollmentCompleted:
			out.Stats.Completed++
			out.Stats.Hours += e.Course.DurationHours
		default:
			out.Stats.Active++
		}
	}
	return out, nil
}

func (uc *enrollmentUsecase) Progress(ctx context.Context, userID, courseID uint) (*domain.CourseProgress, error) {
	enrollment, err := uc.enrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	cs, err := uc.load(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return cs.view(enrollment), nil
}

func (uc *enrollmentUsecase) StartModule(ctx context.Context, userID, courseID uint, moduleID string) (*domain.CourseProgress, error) {
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

	// a completed module stays completed when reopened
	if state.Status == domain.StatusCompleted {
		return cs.view(enrollment), nil
	}
	if _, err := uc.markStarted(ctx, enrollment, state); err != nil {
		return nil, err
	}

	cs, err = uc.load(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return cs.view(enrollment), nil
}

// CompleteModule applies the completion rule of the module kind and advances
// the enrollment. quizScore is informational; the stored exam decides whether
// a quiz was passed.
func (uc *enrollmentUsecase) CompleteModule(ctx context.Context, userID, courseID uint, moduleID string, quizScore *float64, quizPassed *bool) (*domain.CompleteModuleResult, error) {
	enrollment, err := uc.enrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	cs, err := uc.load(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	module, state, err := cs.module(moduleID)
	if err != nil {
		return nil, err
	}

	switch state.Status {
	case domain.StatusCompleted:
		enrollment.CompletedModules = cs.completedIDs()
		return &domain.CompleteModuleResult{
			Success:    true,
			Progress:   enrollment.Progress,
			Message:    "Módulo ya completado",
			Enrollment: *enrollment,
		}, nil
	case domain.StatusLocked:
		return nil, domain.ErrModuleLocked
	}

	if err := uc.checkCompletionRule(ctx, userID, module, quizPassed); err != nil {
		return nil, err
	}

	now := time.Now()
	row, ok := cs.rows[moduleID]
	if !ok {
		row = &domain.ModuleProgress{UserID: userID, CourseID: courseID, ModuleID: moduleID}
	}
	row.IsComplete = true
	row.CompletedAt = &now
	if row.QuizScore == nil && module.Kind == domain.KindQuiz {
		row.QuizScore = quizScore
	}

	wasCompleted := enrollment.Status == domain.EnrollmentCompleted
	if err := uc.enrollmentRepo.SaveCompletion(ctx, row, enrollment, len(cs.modules)); err != nil {
		return nil, err
	}
	enrollment.CompletedModules = append(cs.completedIDs(), moduleID)

	res := &domain.CompleteModuleResult{
		Success:         true,
		Progress:        enrollment.Progress,
		CourseCompleted: !wasCompleted && enrollment.Status == domain.EnrollmentCompleted,
		Message:         "Módulo completado",
	}
	if res.CourseCompleted {
		res.Message = "¡Felicitaciones! Completaste el curso"
		cred, created, err := uc.credentials.Issue(ctx, userID, courseID)
		if err != nil {
			uc.log.Error("credential issue failed", "user_id", userID, "course_id", courseID, "error", err)
		} else {
			res.CredentialIssued = created
			res.CredentialNumber = cred.Number
		}
	}
	res.Enrollment = *enrollment

	uc.log.Info("module completed",
		"user_id", userID, "course_id", courseID, "module_id", moduleID,
		"progress", enrollment.Progress, "course_completed", res.CourseCompleted)
	return res, nil
}

func (uc *enrollmentUsecase) checkCompletionRule(ctx context.Context, userID uint, module *domain.Module, quizPassed *bool) error {
	switch module.Kind {
	case domain.KindTheory:
		return nil
	case domain.KindQuiz:
		if quizPassed != nil && !*quizPassed {
			return domain.ErrQuizNotPassed
		}
		passed, err := uc.examRepo.HasPassed(ctx, userID, module.ID)
		if err != nil {
			return err
		}
		if !passed {
			return domain.ErrQuizNotPassed
		}
		return nil
	case domain.KindPractice:
		evidence, err := uc.evidenceRepo.GetByUserAndModule(ctx, userID, module.ID)
		if err != nil {
			return err
		}
		if !progress.PracticeComplete(module.Tasks, progress.LatestByTask(evidence)) {
			return domain.ErrPracticeIncomplete
		}
		return nil
	}
	return domain.ErrWrongModuleKind
}
