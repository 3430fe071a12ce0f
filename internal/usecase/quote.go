package usecase

import (
	"context"
	"fmt"
	"strings"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/progress"
	"vmp-edtech-backend/pkg/logger"
	"vmp-edtech-backend/pkg/utils"
)

const (
	defaultQuoteLimit = 50
	maxQuoteLimit     = 100

	temporaryPasswordLength = 12
)

type quoteUsecase struct {
	quoteRepo  domain.QuoteRepository
	courseRepo domain.CourseRepository
	notifier   domain.Notifier
	log        *logger.Logger
}

func NewQuoteUsecase(qr domain.QuoteRepository, cr domain.CourseRepository, notifier domain.Notifier, log *logger.Logger) domain.QuoteUsecase {
	return &quoteUsecase{quoteRepo: qr, courseRepo: cr, notifier: notifier, log: log}
}

// Create stores a quote request. Prices sent by the client are ignored and
// recomputed from the price table.
func (uc *quoteUsecase) Create(ctx context.Context, quote *domain.Quote) error {
	if !quote.AcceptTerms {
		return fmt.Errorf("%w: terms must be accepted", domain.ErrInvalidInput)
	}
	quote.Email = strings.ToLower(strings.TrimSpace(quote.Email))

	price, err := progress.PriceQuote(quote.Course, quote.Modality, quote.Quantity)
	if err != nil {
		return err
	}
	quote.ID = 0
	quote.TotalPrice = price.Total
	quote.PricePerStudent = price.PerStudent
	quote.Discount = price.Discount
	quote.Status = domain.QuotePending

	if err := uc.quoteRepo.Create(ctx, quote); err != nil {
		return err
	}
	uc.log.Info("quote received", "quote_id", quote.ID, "company", quote.Company, "quantity", quote.Quantity, "total", quote.TotalPrice)

	if err := uc.notifier.NotifyQuote(ctx, quote); err != nil {
		uc.log.Warn("quote email failed", "quote_id", quote.ID, "error", err)
	}
	return nil
}

func (uc *quoteUsecase) List(ctx context.Context, status domain.QuoteStatus, skip, limit int) ([]domain.Quote, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultQuoteLimit
	}
	if limit > maxQuoteLimit {
		limit = maxQuoteLimit
	}
	return uc.quoteRepo.List(ctx, status, skip, limit)
}

func (uc *quoteUsecase) UpdateStatus(ctx context.Context, id uint, status domain.QuoteStatus) (*domain.Quote, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	quote, err := uc.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	quote.Status = status
	if err := uc.quoteRepo.Update(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Convert turns a contacted quote into a client: the company, one learner
// account per student with a temporary password, and their enrollments in
// the quoted course. The welcome email to the contact is best effort.
func (uc *quoteUsecase) Convert(ctx context.Context, id uint, req domain.QuoteConversionRequest) (*domain.QuoteConversion, error) {
	quote, err := uc.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.QuoteContacted {
		return nil, fmt.Errorf("%w: only contacted quotes can be converted (current: %s)", domain.ErrInvalidInput, quote.Status)
	}

	students := req.Students
	if students == 0 {
		students = quote.Quantity
	}
	if students < progress.MinQuoteQuantity || students > progress.MaxQuoteQuantity {
		return nil, fmt.Errorf("%w: students must be between %d and %d", domain.ErrInvalidInput, progress.MinQuoteQuantity, progress.MaxQuoteQuantity)
	}

	code, ok := progress.CourseCode(quote.Course)
	if !ok {
		return nil, fmt.Errorf("%w: quote course %q has no catalog course", domain.ErrInvalidInput, quote.Course)
	}
	course, err := uc.courseRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	company := &domain.Company{
		Name:    firstNonEmpty(req.CompanyName, quote.Company),
		CUIT:    firstNonEmpty(req.CompanyCUIT, quote.CUIT, fmt.Sprintf("TEMP-%d", quote.ID)),
		Email:   quote.Email,
		Phone:   firstNonEmpty(req.CompanyPhone, quote.Phone),
		Address: strings.TrimSpace(req.CompanyAddress),
		Active:  true,
	}

	users := make([]domain.User, students)
	passwords := make([]string, students)
	domainPart := strings.ToLower(strings.ReplaceAll(company.CUIT, " ", ""))
	for i := range users {
		n := i + 1
		password, err := utils.RandomPassword(temporaryPasswordLength)
		if err != nil {
			return nil, err
		}
		hashed, err := utils.HashPassword(password)
		if err != nil {
			return nil, err
		}
		passwords[i] = password
		users[i] = domain.User{
			FirstName: fmt.Sprintf("Alumno %d", n),
			LastName:  company.Name,
			DNI:       fmt.Sprintf("TEMP-Q%d-%03d", quote.ID, n),
			Email:     fmt.Sprintf("alumno%d@%s.vmp.temp", n, domainPart),
			Password:  hashed,
			Role:      domain.RoleStudent,
			Active:    true,
		}
	}

	enrollments, err := uc.quoteRepo.Convert(ctx, quote, company, users, course.ID)
	if err != nil {
		return nil, err
	}

	conv := &domain.QuoteConversion{
		Quote:       *quote,
		Company:     *company,
		Course:      *course,
		Students:    make([]domain.ConvertedStudent, 0, len(users)),
		Enrollments: enrollments,
		Message:     fmt.Sprintf("Cotización convertida: empresa %s con %d alumnos inscriptos en %s", company.Name, len(users), course.Name),
	}
	for i, u := range users {
		conv.Students = append(conv.Students, domain.ConvertedStudent{
			ID:                u.ID,
			FirstName:         u.FirstName,
			LastName:          u.LastName,
			Email:             u.Email,
			DNI:               u.DNI,
			TemporaryPassword: passwords[i],
		})
	}
	uc.log.Info("quote converted", "quote_id", quote.ID, "company_id", company.ID, "students", len(users), "course_id", course.ID)

	if err := uc.notifier.NotifyCompanyWelcome(ctx, conv); err != nil {
		uc.log.Warn("welcome email failed", "quote_id", quote.ID, "error", err)
	}
	return conv, nil
}
