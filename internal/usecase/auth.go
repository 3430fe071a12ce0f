package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/pkg/logger"
	"vmp-edtech-backend/pkg/utils"

	"github.com/google/uuid"
)

const (
	// ResetTokenTTL is how long a password reset link stays usable.
	ResetTokenTTL     = time.Hour
	minPasswordLength = 6
)

type authUsecase struct {
	userRepo    domain.UserRepository
	companyRepo domain.CompanyRepository
	resetRepo   domain.PasswordResetRepository
	tokens      *utils.TokenManager
	notifier    domain.Notifier
	log         *logger.Logger
	frontendURL string
	now         func() time.Time
}

func NewAuthUsecase(
	ur domain.UserRepository,
	cr domain.CompanyRepository,
	rr domain.PasswordResetRepository,
	tokens *utils.TokenManager,
	notifier domain.Notifier,
	log *logger.Logger,
	frontendURL string,
) domain.AuthUsecase {
	return &authUsecase{
		userRepo:    ur,
		companyRepo: cr,
		resetRepo:   rr,
		tokens:      tokens,
		notifier:    notifier,
		log:         log,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (uc *authUsecase) Register(ctx context.Context, user *domain.User) error {
	user.Email = normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = domain.RoleStudent
	}

	if user.CompanyID != nil {
		company, err := uc.companyRepo.GetByID(ctx, *user.CompanyID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown company", domain.ErrInvalidInput)
		}
		if err != nil {
			return err
		}
		if !company.Active {
			return fmt.Errorf("%w: company is inactive", domain.ErrInvalidInput)
		}
	}

	hashed, err := utils.HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.Active = true

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return err
	}
	uc.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return nil
}

// EnsureSuperAdmin creates the bootstrap super admin when the email is unused.
func (uc *authUsecase) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	_, err := uc.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return uc.Register(ctx, &domain.User{
		FirstName: "Super",
		LastName:  "Admin",
		Email:     email,
		Password:  password,
		Role:      domain.RoleSuperAdmin,
	})
}

func (uc *authUsecase) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, domain.ErrInvalidLogin
	}
	if err != nil {
		return "", nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return "", nil, domain.ErrInvalidLogin
	}
	if !user.Active {
		return "", nil, fmt.Errorf("%w: user is inactive", domain.ErrForbidden)
	}

	token, err := uc.tokens.GenerateJWT(user.ID, string(user.Role), user.CompanyID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (uc *authUsecase) Me(ctx context.Context, userID uint) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

// ========== PASSWORD RESET ==========

// ForgotPassword mails a one-hour reset link to active users. Unknown emails
// and mail failures are only logged.
func (uc *authUsecase) ForgotPassword(ctx context.Context, email string) error {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		uc.log.Info("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	if !user.Active {
		uc.log.Info("password reset for inactive user", "user_id", user.ID)
		return nil
	}

	token := &domain.PasswordResetToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: uc.now().Add(ResetTokenTTL),
	}
	if err := uc.resetRepo.Create(ctx, token); err != nil {
		return err
	}

	resetURL := uc.frontendURL + "/reset-password/" + token.Token
	if err := uc.notifier.NotifyPasswordReset(ctx, user, resetURL); err != nil {
		uc.log.Warn("password reset email failed", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword spends the token and stores the new password.
func (uc *authUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	row, err := uc.resetRepo.GetByToken(ctx, strings.TrimSpace(token))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrResetTokenInvalid
	}
	if err != nil {
		return err
	}
	if row.Used {
		return domain.ErrResetTokenUsed
	}
	if !uc.now().Before(row.ExpiresAt) {
		return domain.ErrResetTokenExpired
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := uc.resetRepo.Consume(ctx, row, hashed); err != nil {
		return err
	}
	uc.log.Info("password reset", "user_id", row.UserID)
	return nil
}
