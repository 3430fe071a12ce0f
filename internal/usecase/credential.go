package usecase

import (
	"context"
	"errors"
	"time"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/pkg/logger"
	"vmp-edtech-backend/pkg/utils"
)

// DefaultValidityMonths applies to courses without their own validity.
const DefaultValidityMonths = 24

const issueAttempts = 3

// ========== CREDENTIAL USECASE ==========

type credentialUsecase struct {
	credRepo       domain.CredentialRepository
	enrollmentRepo domain.EnrollmentRepository
	userRepo       domain.UserRepository
	notifier       domain.Notifier
	log            *logger.Logger
	prefix         string
	frontendURL    string
	now            func() time.Time
}

func NewCredentialUsecase(
	cr domain.CredentialRepository,
	er domain.EnrollmentRepository,
	ur domain.UserRepository,
	notifier domain.Notifier,
	log *logger.Logger,
	prefix, frontendURL string,
) domain.CredentialUsecase {
	return &credentialUsecase{
		credRepo:       cr,
		enrollmentRepo: er,
		userRepo:       ur,
		notifier:       notifier,
		log:            log,
		prefix:         prefix,
		frontendURL:    frontendURL,
		now:            time.Now,
	}
}

// Issue creates the credential of a completed enrollment. A second call for
// the same learner and course returns the credential already issued.
func (uc *credentialUsecase) Issue(ctx context.Context, userID, courseID uint) (*domain.Credential, bool, error) {
	existing, err := uc.credRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	enrollment, err := uc.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, domain.ErrNotEnrolled
	}
	if err != nil {
		return nil, false, err
	}
	if enrollment.Status != domain.EnrollmentCompleted {
		return nil, false, domain.ErrCourseNotCompleted
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	issuedAt := uc.now()
	months := DefaultValidityMonths
	if enrollment.Course.ValidityMonths != nil && *enrollment.Course.ValidityMonths > 0 {
		months = *enrollment.Course.ValidityMonths
	}
	expiresAt := issuedAt.AddDate(0, months, 0)

	cred := &domain.Credential{
		UserID:    userID,
		CourseID:  courseID,
		CompanyID: user.CompanyID,
		IssuedAt:  issuedAt,
		ExpiresAt: &expiresAt,
	}

	// the sequence comes from a count, so two issues can race for a number
	for attempt := 0; ; attempt++ {
		count, err := uc.credRepo.Count(ctx)
		if err != nil {
			return nil, false, err
		}
		cred.Number = utils.CredentialNumber(uc.prefix, issuedAt.Year(), int(count)+1+attempt)
		cred.VerifyURL = utils.VerifyURL(uc.frontendURL, cred.Number)

		err = uc.credRepo.Create(ctx, cred)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt+1 >= issueAttempts {
			return nil, false, err
		}
	}

	uc.log.Info("credential issued", "user_id", userID, "course_id", courseID, "number", cred.Number)
	if err := uc.notifier.NotifyCredential(ctx, user, &enrollment.Course, cred); err != nil {
		uc.log.Warn("credential email failed", "number", cred.Number, "error", err)
	}
	return cred, true, nil
}

func (uc *credentialUsecase) GetUserCredentials(ctx context.Context, userID uint) ([]domain.Credential, error) {
	return uc.credRepo.GetByUserID(ctx, userID)
}

func (uc *credentialUsecase) Validate(ctx context.Context, number string) (*domain.CredentialValidation, error) {
	cred, err := uc.credRepo.GetByNumber(ctx, number)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.CredentialValidation{
			Status:  domain.CredentialNotFound,
			Message: "Credencial no encontrada",
		}, nil
	}
	if err != nil {
		return nil, err
	}

	res := &domain.CredentialValidation{
		Valid:      true,
		Status:     domain.CredentialValid,
		Message:    "Credencial válida",
		Credential: publicCredential(cred),
	}
	if cred.ExpiresAt != nil && uc.now().After(*cred.ExpiresAt) {
		res.Valid = false
		res.Status = domain.CredentialExpired
		res.Message = "Credencial vencida"
	}
	return res, nil
}

// List is the staff view of issued credentials. Instructors bound to a
// company only see their own learners.
func (uc *credentialUsecase) List(ctx context.Context, actor domain.Actor, filter domain.CredentialFilter) ([]domain.Credential, error) {
	if !actor.Role.IsStaff() {
		return nil, domain.ErrForbidden
	}
	if actor.Role == domain.RoleInstructor && actor.CompanyID != nil {
		filter.CompanyID = actor.CompanyID
	}
	return uc.credRepo.List(ctx, filter)
}

func (uc *credentialUsecase) Delete(ctx context.Context, id uint) error {
	if err := uc.credRepo.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info("credential deleted", "credential_id", id)
	return nil
}

func publicCredential(cred *domain.Credential) *domain.PublicCredential {
	pc := &domain.PublicCredential{
		Number:    cred.Number,
		IssuedAt:  cred.IssuedAt,
		ExpiresAt: cred.ExpiresAt,
	}
	pc.Student.FirstName = cred.User.FirstName
	pc.Student.LastName = cred.User.LastName
	pc.Student.DNI = cred.User.DNI
	pc.Course.Name = cred.Course.Name
	pc.Course.Code = cred.Course.Code
	pc.Course.Description = cred.Course.Description
	if cred.Company != nil {
		pc.Company = &struct {
			Name string `json:"nombre"`
			CUIT string `json:"cuit"`
		}{Name: cred.Company.Name, CUIT: cred.Company.CUIT}
	}
	return pc
}
