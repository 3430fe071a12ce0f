package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/pkg/logger"
)

// MaxPhotoSize is the largest evidence photo accepted, in bytes.
const MaxPhotoSize = 5 << 20

var photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type evidenceUsecase struct {
	tracker
	evidenceRepo domain.EvidenceRepository
	photos       domain.PhotoStore
	log          *logger.Logger
}

func NewEvidenceUsecase(
	mr domain.ModuleRepository,
	er domain.EnrollmentRepository,
	pr domain.ModuleProgressRepository,
	evr domain.EvidenceRepository,
	photos domain.PhotoStore,
	log *logger.Logger,
) domain.EvidenceUsecase {
	return &evidenceUsecase{
		tracker:      tracker{moduleRepo: mr, progressRepo: pr, enrollmentRepo: er},
		evidenceRepo: evr,
		photos:       photos,
		log:          log,
	}
}

func validatePhoto(filename string, size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: empty file", domain.ErrInvalidFile)
	}
	if size > MaxPhotoSize {
		return fmt.Errorf("%w: photo exceeds 5MB", domain.ErrInvalidFile)
	}
	if !photoExtensions[strings.ToLower(filepath.Ext(filename))] {
		return fmt.Errorf("%w: only jpg, png or webp images are accepted", domain.ErrInvalidFile)
	}
	return nil
}

func (uc *evidenceUsecase) Upload(ctx context.Context, userID uint, taskID string, file io.Reader, filename string, size int64, comment string) (*domain.Evidence, error) {
	if err := validatePhoto(filename, size); err != nil {
		return nil, err
	}

	module, err := uc.moduleRepo.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	if module.Kind != domain.KindPractice {
		return nil, domain.ErrWrongModuleKind
	}
	if _, ok := module.TaskByID(taskID); !ok {
		return nil, fmt.Errorf("task %w", domain.ErrNotFound)
	}

	enrollment, err := uc.enrollment(ctx, userID, module.CourseID)
	if err != nil {
		return nil, err
	}
	cs, err := uc.load(ctx, userID, module.CourseID)
	if err != nil {
		return nil, err
	}
	_, state, err := cs.module(module.ID)
	if err != nil {
		return nil, err
	}
	if state.Status == domain.StatusLocked {
		return nil, domain.ErrModuleLocked
	}

	previous, err := uc.evidenceRepo.GetByUserAndTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	for _, ev := range previous {
		if ev.Status == domain.EvidenceApproved {
			return nil, domain.ErrEvidenceAlreadyApproved
		}
	}

	fileID, err := uc.photos.Upload(ctx, file, filename, size, domain.PhotoMetadata{
		UploadedBy: userID,
		TaskID:     taskID,
		CourseID:   module.CourseID,
	})
	if err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	evidence := &domain.Evidence{
		TaskID:      taskID,
		ModuleID:    module.ID,
		CourseID:    module.CourseID,
		UserID:      userID,
		PhotoFileID: fileID,
		Comment:     comment,
		Status:      domain.EvidencePending,
		UploadedAt:  time.Now(),
	}
	if err := uc.evidenceRepo.Create(ctx, evidence); err != nil {
		if derr := uc.photos.Delete(ctx, fileID); derr != nil {
			uc.log.Warn("orphan evidence photo", "file_id", fileID, "error", derr)
		}
		return nil, err
	}

	if state.Status == domain.StatusAvailable {
		if _, err := uc.markStarted(ctx, enrollment, state); err != nil {
			return nil, err
		}
	}

	uc.log.Info("evidence uploaded", "user_id", userID, "task_id", taskID, "evidence_id", evidence.ID)
	return evidence, nil
}

func (uc *evidenceUsecase) ListByTask(ctx context.Context, userID uint, taskID string) ([]domain.Evidence, error) {
	return uc.evidenceRepo.GetByUserAndTask(ctx, userID, taskID)
}

func (uc *evidenceUsecase) Delete(ctx context.Context, userID uint, evidenceID uint) error {
	evidence, err := uc.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return err
	}
	if evidence.UserID != userID {
		return domain.ErrForbidden
	}
	if evidence.Status == domain.EvidenceApproved {
		return domain.ErrEvidenceLocked
	}

	if err := uc.evidenceRepo.Delete(ctx, evidenceID); err != nil {
		return err
	}
	if err := uc.photos.Delete(ctx, evidence.PhotoFileID); err != nil {
		uc.log.Warn("failed to delete evidence photo", "file_id", evidence.PhotoFileID, "error", err)
	}
	return nil
}

// ListPending returns the review queue. Instructors bound to a company only
// see their own learners.
func (uc *evidenceUsecase) ListPending(ctx context.Context, actor domain.Actor) ([]domain.Evidence, error) {
	if !actor.Role.IsStaff() {
		return nil, domain.ErrForbidden
	}
	var companyID *uint
	if actor.Role == domain.RoleInstructor {
		companyID = actor.CompanyID
	}
	return uc.evidenceRepo.GetPending(ctx, companyID)
}

func (uc *evidenceUsecase) Evaluate(ctx context.Context, actor domain.Actor, evidenceID uint, decision domain.EvidenceStatus, feedback string) (*domain.Evidence, error) {
	if !actor.Role.IsStaff() {
		return nil, domain.ErrForbidden
	}
	if decision != domain.EvidenceApproved && decision != domain.EvidenceRejected {
		return nil, domain.ErrInvalidDecision
	}

	evidence, err := uc.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	if !canReview(actor, evidence) {
		return nil, domain.ErrForbidden
	}
	if evidence.Status != domain.EvidencePending {
		return nil, domain.ErrEvidenceAlreadyEvaluated
	}

	now := time.Now()
	evidence.Status = decision
	evidence.Feedback = feedback
	evidence.EvaluatorID = &actor.UserID
	evidence.EvaluatedAt = &now
	if err := uc.evidenceRepo.Evaluate(ctx, evidence); err != nil {
		return nil, err
	}

	uc.log.Info("evidence evaluated", "evidence_id", evidenceID, "evaluator_id", actor.UserID, "decision", decision)
	return evidence, nil
}

func (uc *evidenceUsecase) Photo(ctx context.Context, actor domain.Actor, evidenceID uint) (io.ReadCloser, *domain.PhotoInfo, error) {
	evidence, err := uc.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, nil, err
	}
	if evidence.UserID != actor.UserID && !canReview(actor, evidence) {
		return nil, nil, domain.ErrForbidden
	}
	return uc.photos.Download(ctx, evidence.PhotoFileID)
}

func canReview(actor domain.Actor, evidence *domain.Evidence) bool {
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return true
	case domain.RoleInstructor:
		if actor.CompanyID == nil {
			return true
		}
		return evidence.User != nil && evidence.User.CompanyID != nil && *evidence.User.CompanyID == *actor.CompanyID
	}
	return false
}
