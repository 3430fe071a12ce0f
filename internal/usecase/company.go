package usecase

import (
	"context"
	"fmt"
	"strings"

	"vmp-edtech-backend/internal/domain"
)

type companyUsecase struct {
	companyRepo domain.CompanyRepository
}

func NewCompanyUsecase(cr domain.CompanyRepository) domain.CompanyUsecase {
	return &companyUsecase{companyRepo: cr}
}

func (uc *companyUsecase) Create(ctx context.Context, company *domain.Company) error {
	company.Name = strings.TrimSpace(company.Name)
	company.CUIT = strings.TrimSpace(company.CUIT)
	if company.Name == "" || company.CUIT == "" {
		return fmt.Errorf("%w: name and cuit are required", domain.ErrInvalidInput)
	}
	company.Active = true
	return uc.companyRepo.Create(ctx, company)
}

func (uc *companyUsecase) List(ctx context.Context) ([]domain.Company, error) {
	return uc.companyRepo.GetAll(ctx)
}

func (uc *companyUsecase) Get(ctx context.Context, id uint) (*domain.Company, error) {
	return uc.companyRepo.GetByID(ctx, id)
}

// Update also deactivates a company when Active is false.
func (uc *companyUsecase) Update(ctx context.Context, company *domain.Company) error {
	existing, err := uc.companyRepo.GetByID(ctx, company.ID)
	if err != nil {
		return err
	}

	if name := strings.TrimSpace(company.Name); name != "" {
		existing.Name = name
	}
	if cuit := strings.TrimSpace(company.CUIT); cuit != "" {
		existing.CUIT = cuit
	}
	existing.Active = company.Active

	if err := uc.companyRepo.Update(ctx, existing); err != nil {
		return err
	}
	*company = *existing
	return nil
}
