package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/progress"

	"github.com/google/uuid"
)

type courseUsecase struct {
	tracker
	courseRepo   domain.CourseRepository
	passingScore int
}

func NewCourseUsecase(
	cr domain.CourseRepository,
	mr domain.ModuleRepository,
	er domain.EnrollmentRepository,
	pr domain.ModuleProgressRepository,
	passingScore int,
) domain.CourseUsecase {
	if passingScore <= 0 {
		passingScore = domain.DefaultPassingScore
	}
	return &courseUsecase{
		tracker:      tracker{moduleRepo: mr, progressRepo: pr, enrollmentRepo: er},
		courseRepo:   cr,
		passingScore: passingScore,
	}
}

// ========== COURSE CRUD ==========

func validateCourse(course *domain.Course) error {
	course.Code = strings.TrimSpace(course.Code)
	course.Name = strings.TrimSpace(course.Name)
	if course.Code == "" || course.Name == "" {
		return fmt.Errorf("%w: code and name are required", domain.ErrInvalidInput)
	}
	if course.PassingScore < 0 || course.PassingScore > 100 {
		return fmt.Errorf("%w: passing score must be between 0 and 100", domain.ErrInvalidInput)
	}
	if course.ValidityMonths != nil && *course.ValidityMonths <= 0 {
		return fmt.Errorf("%w: validity must be a positive number of months", domain.ErrInvalidInput)
	}
	return nil
}

func (uc *courseUsecase) CreateCourse(ctx context.Context, course *domain.Course) error {
	if err := validateCourse(course); err != nil {
		return err
	}
	if course.PassingScore == 0 {
		course.PassingScore = uc.passingScore
	}
	course.ID = 0
	return uc.courseRepo.Create(ctx, course)
}

func (uc *courseUsecase) UpdateCourse(ctx context.Context, course *domain.Course) error {
	existing, err := uc.courseRepo.GetByID(ctx, course.ID)
	if err != nil {
		return err
	}
	if err := validateCourse(course); err != nil {
		return err
	}

	existing.Code = course.Code
	existing.Name = course.Name
	existing.Description = course.Description
	existing.DurationHours = course.DurationHours
	existing.ValidityMonths = course.ValidityMonths
	existing.CompanyID = course.CompanyID
	existing.InstructorID = course.InstructorID
	existing.Active = course.Active
	if course.PassingScore > 0 {
		existing.PassingScore = course.PassingScore
	}
	existing.Company = nil

	if err := uc.courseRepo.Update(ctx, existing); err != nil {
		return err
	}
	*course = *existing
	return nil
}

// DeleteCourse keeps courses that learners are enrolled in, only marking
// them inactive.
func (uc *courseUsecase) DeleteCourse(ctx context.Context, courseID uint) (bool, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	enrolled, err := uc.enrollmentRepo.CountByCourseID(ctx, courseID)
	if err != nil {
		return false, err
	}
	if enrolled > 0 {
		course.Active = false
		course.Company = nil
		return true, uc.courseRepo.Update(ctx, course)
	}

	if err := uc.courseRepo.Delete(ctx, courseID); err != nil {
		return false, err
	}
	if _, err := uc.moduleRepo.DeleteByCourseID(ctx, courseID); err != nil {
		return false, fmt.Errorf("delete modules of course %d: %w", courseID, err)
	}
	return false, nil
}

// ListCourses returns every course to staff; learners only see active courses
// open to their company.
func (uc *courseUsecase) ListCourses(ctx context.Context, actor domain.Actor) ([]domain.Course, error) {
	if actor.Role.IsStaff() {
		return uc.courseRepo.GetAll(ctx)
	}
	return uc.courseRepo.GetActiveForCompany(ctx, actor.CompanyID)
}

func (uc *courseUsecase) GetCourseDetails(ctx context.Context, courseID uint, actor domain.Actor) (*domain.CourseDetail, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsStaff() && (!course.Active || !course.AvailableTo(actor.CompanyID)) {
		return nil, fmt.Errorf("course %w", domain.ErrNotFound)
	}

	modules, err := uc.moduleRepo.GetByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sorted, err := progress.SortModules(modules)
	if err != nil {
		return nil, err
	}

	enrolled, err := uc.enrollmentRepo.CountByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	_, err = uc.enrollmentRepo.GetByUserAndCourse(ctx, actor.UserID, courseID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	detail := &domain.CourseDetail{
		Course:           *course,
		Modules:          make([]domain.ModuleSummary, 0, len(sorted)),
		EnrolledStudents: int(enrolled),
		IsEnrolled:       err == nil,
	}
	for _, m := range sorted {
		detail.Modules = append(detail.Modules, domain.ModuleSummary{ID: m.ID, Title: m.Title, Order: m.Order, Kind: m.Kind})
	}
	return detail, nil
}

// ========== MODULE CRUD ==========

// validateModule checks the payload of the module kind and assigns ids to
// new questions and tasks.
func validateModule(module *domain.Module) error {
	module.Title = strings.TrimSpace(module.Title)
	if module.Title == "" {
		return fmt.Errorf("%w: module title is required", domain.ErrInvalidInput)
	}
	if !module.Kind.Valid() {
		return fmt.Errorf("%w: unknown module kind %q", domain.ErrInvalidInput, module.Kind)
	}
	if module.Order < 0 {
		return fmt.Errorf("%w: order must not be negative", domain.ErrInvalidInput)
	}

	switch module.Kind {
	case domain.KindQuiz:
		if len(module.Questions) == 0 {
			return fmt.Errorf("%w: a quiz needs at least one question", domain.ErrInvalidInput)
		}
		for i := range module.Questions {
			if err := progress.ValidateQuestion(module.Questions[i]); err != nil {
				return err
			}
			if module.Questions[i].ID == "" {
				module.Questions[i].ID = uuid.NewString()
			}
		}
	case domain.KindPractice:
		if len(module.Tasks) == 0 {
			return fmt.Errorf("%w: a practice needs at least one task", domain.ErrInvalidInput)
		}
		for i := range module.Tasks {
			if strings.TrimSpace(module.Tasks[i].Description) == "" {
				return fmt.Errorf("%w: task description is required", domain.ErrInvalidInput)
			}
			if module.Tasks[i].ID == "" {
				module.Tasks[i].ID = uuid.NewString()
			}
		}
	}
	return nil
}

func (uc *courseUsecase) AddModule(ctx context.Context, module *domain.Module) error {
	if _, err := uc.courseRepo.GetByID(ctx, module.CourseID); err != nil {
		return err
	}
	if err := validateModule(module); err != nil {
		return err
	}

	// order 0 appends the module at the end
	if module.Order == 0 {
		existing, err := uc.moduleRepo.GetByCourseID(ctx, module.CourseID)
		if err != nil {
			return err
		}
		for _, m := range existing {
			if m.Order > module.Order {
				module.Order = m.Order
			}
		}
		module.Order++
	}
	module.ID = ""
	return uc.moduleRepo.Create(ctx, module)
}

func (uc *courseUsecase) GetModule(ctx context.Context, moduleID string) (*domain.Module, error) {
	return uc.moduleRepo.GetByID(ctx, moduleID)
}

func (uc *courseUsecase) UpdateModule(ctx context.Context, module *domain.Module) error {
	existing, err := uc.moduleRepo.GetByID(ctx, module.ID)
	if err != nil {
		return err
	}
	module.CourseID = existing.CourseID
	module.CreatedAt = existing.CreatedAt
	if module.Order == 0 {
		module.Order = existing.Order
	}
	if err := validateModule(module); err != nil {
		return err
	}
	return uc.moduleRepo.Update(ctx, module)
}

// DeleteModule refuses to drop a module once learners are enrolled, since
// their progress rows point at it.
func (uc *courseUsecase) DeleteModule(ctx context.Context, moduleID string) error {
	module, err := uc.moduleRepo.GetByID(ctx, moduleID)
	if err != nil {
		return err
	}
	enrolled, err := uc.enrollmentRepo.CountByCourseID(ctx, module.CourseID)
	if err != nil {
		return err
	}
	if enrolled > 0 {
		return fmt.Errorf("%w: course has enrolled learners", domain.ErrConflict)
	}
	return uc.moduleRepo.Delete(ctx, moduleID)
}

// GetModuleForStudent returns the module without quiz answers. Locked modules
// are refused.
func (uc *courseUsecase) GetModuleForStudent(ctx context.Context, userID, courseID uint, moduleID string) (*domain.StudentModule, error) {
	if _, err := uc.enrollment(ctx, userID, courseID); err != nil {
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
	if state.Status == domain.StatusLocked {
		return nil, domain.ErrModuleLocked
	}
	sm := module.ForStudent(state.Status)
	return &sm, nil
}
