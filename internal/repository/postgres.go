package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/progress"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// conflict maps unique violations (with TranslateError on) to what.
func conflict(err error, what error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return what
	}
	return err
}

// ========== USER REPOSITORY ==========

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepo{db}
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	return conflict(r.db.WithContext(ctx).Omit("Company").Create(user).Error, domain.ErrEmailTaken)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %w", domain.ErrNotFound)
	}
	return &user, err
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Company").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %w", domain.ErrNotFound)
	}
	return &user, err
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	return conflict(r.db.WithContext(ctx).Omit("Company").Save(user).Error, domain.ErrEmailTaken)
}

func (r *userRepo) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	var users []domain.User
	query := r.db.WithContext(ctx).Preload("Company")
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	err := query.Order("created_at DESC, id DESC").Find(&users).Error
	return users, err
}

func (r *userRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %w", domain.ErrNotFound)
	}
	return nil
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error
	return count, err
}

// ========== PASSWORD RESET REPOSITORY ==========

type passwordResetRepo struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) domain.PasswordResetRepository {
	return &passwordResetRepo{db}
}

func (r *passwordResetRepo) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	return conflict(r.db.WithContext(ctx).Create(token).Error, fmt.Errorf("reset token %w", domain.ErrConflict))
}

func (r *passwordResetRepo) GetByToken(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	var row domain.PasswordResetToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("reset token %w", domain.ErrNotFound)
	}
	return &row, err
}

func (r *passwordResetRepo) Consume(ctx context.Context, token *domain.PasswordResetToken, passwordHash string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.PasswordResetToken{}).
			Where("id = ? AND used = ?", token.ID, false).
			Update("used", true)
		if res.Error != nil {
			return fmt.Errorf("mark reset token used: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrResetTokenUsed
		}

		res = tx.Model(&domain.User{}).Where("id = ?", token.UserID).Update("password", passwordHash)
		if res.Error != nil {
			return fmt.Errorf("store password: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %w", domain.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	token.Used = true
	return nil
}

// ========== COMPANY REPOSITORY ==========

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) domain.CompanyRepository {
	return &companyRepo{db}
}

func (r *companyRepo) Create(ctx context.Context, company *domain.Company) error {
	return conflict(r.db.WithContext(ctx).Create(company).Error, fmt.Errorf("company cuit %w", domain.ErrConflict))
}

func (r *companyRepo) GetByID(ctx context.Context, id uint) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).First(&company, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("company %w", domain.ErrNotFound)
	}
	return &company, err
}

func (r *companyRepo) GetAll(ctx context.Context) ([]domain.Company, error) {
	var companies []domain.Company
	err := r.db.WithContext(ctx).Order("name ASC").Find(&companies).Error
	return companies, err
}

func (r *companyRepo) Update(ctx context.Context, company *domain.Company) error {
	return conflict(r.db.WithContext(ctx).Save(company).Error, fmt.Errorf("company cuit %w", domain.ErrConflict))
}

func (r *companyRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Company{}).Count(&count).Error
	return count, err
}

// ========== COURSE REPOSITORY ==========

type courseRepo struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) domain.CourseRepository {
	return &courseRepo{db}
}

func (r *courseRepo) Create(ctx context.Context, course *domain.Course) error {
	return conflict(r.db.WithContext(ctx).Omit("Company").Create(course).Error, fmt.Errorf("course code %w", domain.ErrConflict))
}

func (r *courseRepo) Update(ctx context.Context, course *domain.Course) error {
	return r.db.WithContext(ctx).Omit("Company").Save(course).Error
}

func (r *courseRepo) GetAll(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	err := r.db.WithContext(ctx).Preload("Company").Order("created_at DESC").Find(&courses).Error
	return courses, err
}

// GetActiveForCompany returns active courses open to everyone plus the ones
// restricted to companyID.
func (r *courseRepo) GetActiveForCompany(ctx context.Context, companyID *uint) ([]domain.Course, error) {
	var courses []domain.Course
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if companyID == nil {
		query = query.Where("company_id IS NULL")
	} else {
		query = query.Where("company_id IS NULL OR company_id = ?", *companyID)
	}
	err := query.Order("created_at DESC").Find(&courses).Error
	return courses, err
}

func (r *courseRepo) GetByID(ctx context.Context, id uint) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("course %w", domain.ErrNotFound)
	}
	return &course, err
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("course %s %w", code, domain.ErrNotFound)
	}
	return &course, err
}

func (r *courseRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Course{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("course %w", domain.ErrNotFound)
	}
	return nil
}

func (r *courseRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Course{}).Count(&count).Error
	return count, err
}

// ========== ENROLLMENT REPOSITORY ==========

type enrollmentRepo struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) domain.EnrollmentRepository {
	return &enrollmentRepo{db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	return conflict(r.db.WithContext(ctx).Omit("User", "Course").Create(enrollment).Error, domain.ErrAlreadyEnrolled)
}

func (r *enrollmentRepo) GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Preload("Course").
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("enrollment %w", domain.ErrNotFound)
	}
	return &enrollment, err
}

func (r *enrollmentRepo) GetByUserID(ctx context.Context, userID uint) ([]domain.Enrollment, error) {
	var enrollments []domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Course").
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	return r.db.WithContext(ctx).Omit("User", "Course").Save(enrollment).Error
}

func (r *enrollmentRepo) CountByCourseID(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) CountByCourseAndStatus(ctx context.Context, courseID uint, status domain.EnrollmentStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, status).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) CountByStatus(ctx context.Context, status domain.EnrollmentStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) SaveCompletion(ctx context.Context, row *domain.ModuleProgress, enrollment *domain.Enrollment, totalModules int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// serialize completions of the same enrollment
		var locked domain.Enrollment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, enrollment.ID).Error; err != nil {
			return fmt.Errorf("lock enrollment: %w", err)
		}
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("save module progress: %w", err)
		}

		var completed int64
		err := tx.Model(&domain.ModuleProgress{}).
			Where("user_id = ? AND course_id = ? AND is_complete = ?", enrollment.UserID, enrollment.CourseID, true).
			Count(&completed).Error
		if err != nil {
			return fmt.Errorf("count completed modules: %w", err)
		}

		enrollment.StartedAt = locked.StartedAt
		enrollment.FinishedAt = locked.FinishedAt
		enrollment.ApplyProgress(progress.Percentage(int(completed), totalModules), time.Now())
		if err := tx.Omit("User", "Course").Save(enrollment).Error; err != nil {
			return fmt.Errorf("save enrollment: %w", err)
		}
		return nil
	})
}

// ========== MODULE PROGRESS REPOSITORY ==========

type moduleProgressRepo struct {
	db *gorm.DB
}

func NewModuleProgressRepository(db *gorm.DB) domain.ModuleProgressRepository {
	return &moduleProgressRepo{db}
}

func (r *moduleProgressRepo) Create(ctx context.Context, row *domain.ModuleProgress) error {
	return conflict(r.db.WithContext(ctx).Create(row).Error, fmt.Errorf("module progress %w", domain.ErrConflict))
}

func (r *moduleProgressRepo) GetByUserAndModule(ctx context.Context, userID uint, moduleID string) (*domain.ModuleProgress, error) {
	var row domain.ModuleProgress
	err := r.db.WithContext(ctx).Where("user_id = ? AND module_id = ?", userID, moduleID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("module progress %w", domain.ErrNotFound)
	}
	return &row, err
}

func (r *moduleProgressRepo) GetByUserAndCourse(ctx context.Context, userID, courseID uint) ([]domain.ModuleProgress, error) {
	var rows []domain.ModuleProgress
	err := r.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).Find(&rows).Error
	return rows, err
}

func (r *moduleProgressRepo) Update(ctx context.Context, row *domain.ModuleProgress) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// ========== EXAM REPOSITORY ==========

type examRepo struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) domain.ExamRepository {
	return &examRepo{db}
}

func (r *examRepo) Create(ctx context.Context, exam *domain.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepo) HasPassed(ctx context.Context, userID uint, moduleID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Exam{}).
		Where("user_id = ? AND module_id = ? AND passed = ?", userID, moduleID, true).
		Count(&count).Error
	return count > 0, err
}

// ========== EVIDENCE REPOSITORY ==========

type evidenceRepo struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) domain.EvidenceRepository {
	return &evidenceRepo{db}
}

func (r *evidenceRepo) Create(ctx context.Context, evidence *domain.Evidence) error {
	return r.db.WithContext(ctx).Omit("User").Create(evidence).Error
}

func (r *evidenceRepo) GetByID(ctx context.Context, id uint) (*domain.Evidence, error) {
	var evidence domain.Evidence
	err := r.db.WithContext(ctx).Preload("User").First(&evidence, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("evidence %w", domain.ErrNotFound)
	}
	return &evidence, err
}

func (r *evidenceRepo) GetByUserAndTask(ctx context.Context, userID uint, taskID string) ([]domain.Evidence, error) {
	var list []domain.Evidence
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Order("uploaded_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *evidenceRepo) GetByUserAndModule(ctx context.Context, userID uint, moduleID string) ([]domain.Evidence, error) {
	var list []domain.Evidence
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("uploaded_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

// GetPending lists evidence awaiting review, oldest first. A non-nil companyID
// restricts it to learners of that company.
func (r *evidenceRepo) GetPending(ctx context.Context, companyID *uint) ([]domain.Evidence, error) {
	var list []domain.Evidence
	db := r.db.WithContext(ctx)
	query := db.Where("status = ?", domain.EvidencePending)
	if companyID != nil {
		learners := db.Model(&domain.User{}).Select("id").Where("company_id = ?", *companyID)
		query = query.Where("user_id IN (?)", learners)
	}
	err := query.Preload("User").Order("uploaded_at ASC").Find(&list).Error
	return list, err
}

func (r *evidenceRepo) Evaluate(ctx context.Context, evidence *domain.Evidence) error {
	res := r.db.WithContext(ctx).Model(&domain.Evidence{}).
		Where("id = ? AND status = ?", evidence.ID, domain.EvidencePending).
		Updates(map[string]interface{}{
			"status":       evidence.Status,
			"feedback":     evidence.Feedback,
			"evaluator_id": evidence.EvaluatorID,
			"evaluated_at": evidence.EvaluatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrEvidenceAlreadyEvaluated
	}
	return nil
}

func (r *evidenceRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Evidence{}, id).Error
}

func (r *evidenceRepo) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Evidence{}).Where("status = ?", domain.EvidencePending).Count(&count).Error
	return count, err
}

// ========== CREDENTIAL REPOSITORY ==========

type credentialRepo struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) domain.CredentialRepository {
	return &credentialRepo{db}
}

func (r *credentialRepo) Create(ctx context.Context, cred *domain.Credential) error {
	return conflict(r.db.WithContext(ctx).Omit("User", "Course", "Company").Create(cred).Error, fmt.Errorf("credential number %w", domain.ErrConflict))
}

func (r *credentialRepo) GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*domain.Credential, error) {
	var cred domain.Credential
	err := r.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("credential %w", domain.ErrNotFound)
	}
	return &cred, err
}

func (r *credentialRepo) GetByUserID(ctx context.Context, userID uint) ([]domain.Credential, error) {
	var creds []domain.Credential
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Course").
		Order("issued_at DESC").
		Find(&creds).Error
	return creds, err
}

func (r *credentialRepo) GetByNumber(ctx context.Context, number string) (*domain.Credential, error) {
	var cred domain.Credential
	err := r.db.WithContext(ctx).
		Where("number = ?", number).
		Preload("User").
		Preload("Course").
		Preload("Company").
		First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("credential %w", domain.ErrNotFound)
	}
	return &cred, err
}

// List returns credentials newest first. A non-nil CompanyID keeps the ones
// whose learner belongs to that company.
func (r *credentialRepo) List(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error) {
	var creds []domain.Credential
	db := r.db.WithContext(ctx)
	query := db.Preload("User").Preload("Course").Preload("Company")
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.CourseID != 0 {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.CompanyID != nil {
		learners := db.Model(&domain.User{}).Select("id").Where("company_id = ?", *filter.CompanyID)
		query = query.Where("user_id IN (?)", learners)
	}
	err := query.Order("issued_at DESC, id DESC").Find(&creds).Error
	return creds, err
}

func (r *credentialRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Credential{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("credential %w", domain.ErrNotFound)
	}
	return nil
}

func (r *credentialRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Credential{}).Count(&count).Error
	return count, err
}

func (r *credentialRepo) CountByCourseID(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Credential{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

// ========== QUOTE REPOSITORY ==========

type quoteRepo struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) domain.QuoteRepository {
	return &quoteRepo{db}
}

func (r *quoteRepo) Create(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *quoteRepo) GetByID(ctx context.Context, id uint) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).First(&quote, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("quote %w", domain.ErrNotFound)
	}
	return &quote, err
}

func (r *quoteRepo) List(ctx context.Context, status domain.QuoteStatus, skip, limit int) ([]domain.Quote, error) {
	var quotes []domain.Quote
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&quotes).Error
	return quotes, err
}

func (r *quoteRepo) Update(ctx context.Context, quote *domain.Quote) error {
	quote.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(quote).Error
}

func (r *quoteRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Quote{}).Count(&count).Error
	return count, err
}

func (r *quoteRepo) CountByStatus(ctx context.Context, status domain.QuoteStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Quote{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CreatedSince returns the quotes created at or after since, oldest first.
func (r *quoteRepo) CreatedSince(ctx context.Context, since time.Time) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC, id ASC").
		Find(&quotes).Error
	return quotes, err
}

func (r *quoteRepo) Convert(ctx context.Context, quote *domain.Quote, company *domain.Company, students []domain.User, courseID uint) ([]domain.Enrollment, error) {
	enrollments := make([]domain.Enrollment, 0, len(students))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// claims the quote so a second conversion cannot run alongside
		res := tx.Model(&domain.Quote{}).
			Where("id = ? AND status = ?", quote.ID, domain.QuoteContacted).
			Update("status", domain.QuoteConverted)
		if res.Error != nil {
			return fmt.Errorf("claim quote: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("quote %d is no longer contacted: %w", quote.ID, domain.ErrConflict)
		}

		if err := tx.Create(company).Error; err != nil {
			return conflict(err, fmt.Errorf("company cuit %w", domain.ErrConflict))
		}
		for i := range students {
			students[i].CompanyID = &company.ID
			if err := tx.Omit("Company").Create(&students[i]).Error; err != nil {
				return conflict(err, domain.ErrEmailTaken)
			}
			enrollment := domain.Enrollment{UserID: students[i].ID, CourseID: courseID, Status: domain.EnrollmentNotStarted}
			if err := tx.Omit("User", "Course").Create(&enrollment).Error; err != nil {
				return fmt.Errorf("enroll %s: %w", students[i].Email, err)
			}
			enrollments = append(enrollments, enrollment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	quote.Status = domain.QuoteConverted
	return enrollments, nil
}
