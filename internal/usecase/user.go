package usecase

import (
	"context"
	"fmt"
	"strings"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/pkg/logger"
	"vmp-edtech-backend/pkg/utils"
)

type userUsecase struct {
	userRepo       domain.UserRepository
	companyRepo    domain.CompanyRepository
	enrollmentRepo domain.EnrollmentRepository
	auth           domain.AuthUsecase
	log            *logger.Logger
}

func NewUserUsecase(
	ur domain.UserRepository,
	cr domain.CompanyRepository,
	er domain.EnrollmentRepository,
	auth domain.AuthUsecase,
	log *logger.Logger,
) domain.UserUsecase {
	return &userUsecase{userRepo: ur, companyRepo: cr, enrollmentRepo: er, auth: auth, log: log}
}

func sameCompany(a, b *uint) bool {
	return a != nil && b != nil && *a == *b
}

// manages reports whether actor may administer target. Instructors only
// manage the learners of their own company.
func manages(actor domain.Actor, target *domain.User) bool {
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return true
	case domain.RoleInstructor:
		return target.Role == domain.RoleStudent && sameCompany(actor.CompanyID, target.CompanyID)
	}
	return false
}

func (uc *userUsecase) Create(ctx context.Context, actor domain.Actor, user *domain.User) error {
	switch actor.Role {
	case domain.RoleSuperAdmin:
	case domain.RoleInstructor:
		if user.Role != "" && user.Role != domain.RoleStudent {
			return fmt.Errorf("%w: instructors can only create learners", domain.ErrForbidden)
		}
		if !sameCompany(actor.CompanyID, user.CompanyID) {
			return fmt.Errorf("%w: learner must belong to your company", domain.ErrForbidden)
		}
	default:
		return domain.ErrForbidden
	}
	return uc.auth.Register(ctx, user)
}

func (uc *userUsecase) List(ctx context.Context, actor domain.Actor, filter domain.UserFilter) ([]domain.User, error) {
	switch actor.Role {
	case domain.RoleSuperAdmin:
	case domain.RoleInstructor:
		if actor.CompanyID == nil {
			return nil, fmt.Errorf("%w: instructor has no company", domain.ErrForbidden)
		}
		filter.CompanyID = actor.CompanyID
	default:
		return nil, domain.ErrForbidden
	}
	return uc.userRepo.List(ctx, filter)
}

func (uc *userUsecase) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != id && !manages(actor, user) {
		return nil, domain.ErrForbidden
	}
	return user, nil
}

func (uc *userUsecase) Update(ctx context.Context, actor domain.Actor, id uint, upd domain.UserUpdate) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	self := actor.UserID == id
	if !self && !manages(actor, user) {
		return nil, domain.ErrForbidden
	}
	if actor.Role != domain.RoleSuperAdmin {
		if upd.Role != nil && *upd.Role != user.Role {
			return nil, fmt.Errorf("%w: role cannot be changed", domain.ErrForbidden)
		}
		if upd.CompanyID != nil && !sameCompany(upd.CompanyID, user.CompanyID) {
			return nil, fmt.Errorf("%w: company cannot be changed", domain.ErrForbidden)
		}
		if self && upd.Active != nil && *upd.Active != user.Active {
			return nil, fmt.Errorf("%w: you cannot change your own activation", domain.ErrForbidden)
		}
	}

	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.DNI != nil {
		user.DNI = strings.TrimSpace(*upd.DNI)
	}
	if upd.Email != nil {
		user.Email = normalizeEmail(*upd.Email)
	}
	if user.FirstName == "" || user.LastName == "" || user.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	}
	if upd.Role != nil {
		switch *upd.Role {
		case domain.RoleStudent, domain.RoleInstructor, domain.RoleSuperAdmin:
			user.Role = *upd.Role
		default:
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, *upd.Role)
		}
	}
	if upd.CompanyID != nil && !sameCompany(upd.CompanyID, user.CompanyID) {
		company, err := uc.companyRepo.GetByID(ctx, *upd.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown company", domain.ErrInvalidInput)
		}
		if !company.Active {
			return nil, fmt.Errorf("%w: company is inactive", domain.ErrInvalidInput)
		}
		user.CompanyID = upd.CompanyID
	}
	if upd.Active != nil {
		user.Active = *upd.Active
	}
	if upd.Password != nil {
		if len(*upd.Password) < minPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
		}
		hashed, err := utils.HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	user.Company = nil
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *userUsecase) Delete(ctx context.Context, actor domain.Actor, id uint) (bool, error) {
	if actor.UserID == id {
		return false, fmt.Errorf("%w: you cannot delete your own account", domain.ErrForbidden)
	}
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !manages(actor, user) {
		return false, domain.ErrForbidden
	}

	enrolled, err := uc.enrollmentRepo.CountByUserID(ctx, id)
	if err != nil {
		return false, err
	}
	if enrolled > 0 {
		user.Active = false
		user.Company = nil
		if err := uc.userRepo.Update(ctx, user); err != nil {
			return false, err
		}
		uc.log.Info("user deactivated", "user_id", id, "by", actor.UserID)
		return true, nil
	}

	if err := uc.userRepo.Delete(ctx, id); err != nil {
		return false, err
	}
	uc.log.Info("user deleted", "user_id", id, "by", actor.UserID)
	return false, nil
}
