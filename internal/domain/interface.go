package domain

import (
	"context"
	"io"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, filter UserFilter) ([]User, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type PasswordResetRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	// Consume marks the token used and stores the new password hash in one
	// transaction; it fails with ErrResetTokenUsed when the token was spent.
	Consume(ctx context.Context, token *PasswordResetToken, passwordHash string) error
}

type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	GetByID(ctx context.Context, id uint) (*Company, error)
	GetAll(ctx context.Context) ([]Company, error)
	Update(ctx context.Context, company *Company) error
	Count(ctx context.Context) (int64, error)
}

type CourseRepository interface {
	Create(ctx context.Context, course *Course) error
	GetAll(ctx context.Context) ([]Course, error)
	GetActiveForCompany(ctx context.Context, companyID *uint) ([]Course, error)
	GetByID(ctx context.Context, id uint) (*Course, error)
	GetByCode(ctx context.Context, code string) (*Course, error)
	Update(ctx context.Context, course *Course) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type ModuleRepository interface { // MongoDB
	Create(ctx context.Context, module *Module) error
	GetByID(ctx context.Context, id string) (*Module, error)
	GetByCourseID(ctx context.Context, courseID uint) ([]Module, error)
	GetByTaskID(ctx context.Context, taskID string) (*Module, error)
	Update(ctx context.Context, module *Module) error
	Delete(ctx context.Context, id string) error
	DeleteByCourseID(ctx context.Context, courseID uint) (int64, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *Enrollment) error
	GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*Enrollment, error)
	GetByUserID(ctx context.Context, userID uint) ([]Enrollment, error)
	Update(ctx context.Context, enrollment *Enrollment) error
	CountByCourseID(ctx context.Context, courseID uint) (int64, error)
	CountByCourseAndStatus(ctx context.Context, courseID uint, status EnrollmentStatus) (int64, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status EnrollmentStatus) (int64, error)
	// SaveCompletion stores the module progress row, recounts the completed
	// modules and advances the enrollment, all in one transaction.
	SaveCompletion(ctx context.Context, progress *ModuleProgress, enrollment *Enrollment, totalModules int) error
}

type ModuleProgressRepository interface {
	Create(ctx context.Context, progress *ModuleProgress) error
	GetByUserAndModule(ctx context.Context, userID uint, moduleID string) (*ModuleProgress, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID uint) ([]ModuleProgress, error)
	Update(ctx context.Context, progress *ModuleProgress) error
}

type ExamRepository interface {
	Create(ctx context.Context, exam *Exam) error
	HasPassed(ctx context.Context, userID uint, moduleID string) (bool, error)
}

type EvidenceRepository interface {
	Create(ctx context.Context, evidence *Evidence) error
	GetByID(ctx context.Context, id uint) (*Evidence, error)
	GetByUserAndTask(ctx context.Context, userID uint, taskID string) ([]Evidence, error)
	GetByUserAndModule(ctx context.Context, userID uint, moduleID string) ([]Evidence, error)
	GetPending(ctx context.Context, companyID *uint) ([]Evidence, error)
	// Evaluate moves a PENDIENTE evidence to its final state; it fails with
	// ErrEvidenceAlreadyEvaluated when another reviewer got there first.
	Evaluate(ctx context.Context, evidence *Evidence) error
	Delete(ctx context.Context, id uint) error
	CountPending(ctx context.Context) (int64, error)
}

type CredentialRepository interface {
	Create(ctx context.Context, cred *Credential) error
	GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*Credential, error)
	GetByUserID(ctx context.Context, userID uint) ([]Credential, error)
	GetByNumber(ctx context.Context, number string) (*Credential, error)
	List(ctx context.Context, filter CredentialFilter) ([]Credential, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountByCourseID(ctx context.Context, courseID uint) (int64, error)
}

type QuoteRepository interface {
	Create(ctx context.Context, quote *Quote) error
	GetByID(ctx context.Context, id uint) (*Quote, error)
	List(ctx context.Context, status QuoteStatus, skip, limit int) ([]Quote, error)
	Update(ctx context.Context, quote *Quote) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status QuoteStatus) (int64, error)
	CreatedSince(ctx context.Context, since time.Time) ([]Quote, error)
	// Convert creates the company, the learners and their enrollments and
	// marks the quote converted, all in one transaction. It fails with
	// ErrConflict when the quote is no longer in the contacted state.
	Convert(ctx context.Context, quote *Quote, company *Company, students []User, courseID uint) ([]Enrollment, error)
}

// PhotoStore keeps evidence photos (GridFS).
type PhotoStore interface {
	Upload(ctx context.Context, file io.Reader, filename string, size int64, meta PhotoMetadata) (string, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, *PhotoInfo, error)
	Delete(ctx context.Context, fileID string) error
}

type PhotoMetadata struct {
	UploadedBy uint
	TaskID     string
	CourseID   uint
}

type PhotoInfo struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
}

// Notifier sends transactional emails (SendGrid in production).
type Notifier interface {
	NotifyQuote(ctx context.Context, quote *Quote) error
	NotifyCredential(ctx context.Context, user *User, course *Course, cred *Credential) error
	NotifyPasswordReset(ctx context.Context, user *User, resetURL string) error
	NotifyCompanyWelcome(ctx context.Context, conv *QuoteConversion) error
}

// ========== USECASES ==========

type Actor struct {
	UserID    uint
	Role      Role
	CompanyID *uint
}

type AuthUsecase interface {
	Register(ctx context.Context, user *User) error
	EnsureSuperAdmin(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (string, *User, error)
	Me(ctx context.Context, userID uint) (*User, error)
	// ForgotPassword never reveals whether the email exists.
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type UserUsecase interface {
	Create(ctx context.Context, actor Actor, user *User) error
	List(ctx context.Context, actor Actor, filter UserFilter) ([]User, error)
	Get(ctx context.Context, actor Actor, id uint) (*User, error)
	Update(ctx context.Context, actor Actor, id uint, upd UserUpdate) (*User, error)
	// Delete deactivates users with enrollments (true) and removes the rest.
	Delete(ctx context.Context, actor Actor, id uint) (bool, error)
}

type CompanyUsecase interface {
	Create(ctx context.Context, company *Company) error
	List(ctx context.Context) ([]Company, error)
	Get(ctx context.Context, id uint) (*Company, error)
	Update(ctx context.Context, company *Company) error
}

type CourseUsecase interface {
	CreateCourse(ctx context.Context, course *Course) error
	UpdateCourse(ctx context.Context, course *Course) error
	// DeleteCourse deactivates a course with enrollments (true) and removes
	// the rest together with its modules.
	DeleteCourse(ctx context.Context, courseID uint) (bool, error)
	ListCourses(ctx context.Context, actor Actor) ([]Course, error)
	GetCourseDetails(ctx context.Context, courseID uint, actor Actor) (*CourseDetail, error)
	AddModule(ctx context.Context, module *Module) error
	UpdateModule(ctx context.Context, module *Module) error
	DeleteModule(ctx context.Context, moduleID string) error
	GetModule(ctx context.Context, moduleID string) (*Module, error)
	GetModuleForStudent(ctx context.Context, userID, courseID uint, moduleID string) (*StudentModule, error)
}

type EnrollmentUsecase interface {
	Enroll(ctx context.Context, actor Actor, courseID uint) (*Enrollment, error)
	GetEnrollment(ctx context.Context, userID, courseID uint) (*Enrollment, error)
	MyCourses(ctx context.Context, userID uint) (*MyCourses, error)
	Progress(ctx context.Context, userID, courseID uint) (*CourseProgress, error)
	StartModule(ctx context.Context, userID, courseID uint, moduleID string) (*CourseProgress, error)
	CompleteModule(ctx context.Context, userID, courseID uint, moduleID string, quizScore *float64, quizPassed *bool) (*CompleteModuleResult, error)
}

type QuizUsecase interface {
	SubmitQuiz(ctx context.Context, userID, courseID uint, moduleID string, answers map[string]int) (*QuizResult, error)
}

type EvidenceUsecase interface {
	Upload(ctx context.Context, userID uint, taskID string, file io.Reader, filename string, size int64, comment string) (*Evidence, error)
	ListByTask(ctx context.Context, userID uint, taskID string) ([]Evidence, error)
	Delete(ctx context.Context, userID uint, evidenceID uint) error
	ListPending(ctx context.Context, actor Actor) ([]Evidence, error)
	Evaluate(ctx context.Context, actor Actor, evidenceID uint, decision EvidenceStatus, feedback string) (*Evidence, error)
	Photo(ctx context.Context, actor Actor, evidenceID uint) (io.ReadCloser, *PhotoInfo, error)
}

type CredentialUsecase interface {
	// Issue returns the existing credential (false) or a new one (true).
	Issue(ctx context.Context, userID, courseID uint) (*Credential, bool, error)
	GetUserCredentials(ctx context.Context, userID uint) ([]Credential, error)
	Validate(ctx context.Context, number string) (*CredentialValidation, error)
	List(ctx context.Context, actor Actor, filter CredentialFilter) ([]Credential, error)
	Delete(ctx context.Context, id uint) error
}

type QuoteUsecase interface {
	Create(ctx context.Context, quote *Quote) error
	List(ctx context.Context, status QuoteStatus, skip, limit int) ([]Quote, error)
	UpdateStatus(ctx context.Context, id uint, status QuoteStatus) (*Quote, error)
	Convert(ctx context.Context, id uint, req QuoteConversionRequest) (*QuoteConversion, error)
}

type DashboardUsecase interface {
	GetAdminOverview(ctx context.Context) (*AdminOverview, error)
	CourseMetrics(ctx context.Context) ([]CourseMetrics, error)
	ConversionMetrics(ctx context.Context, days int) (*ConversionMetrics, error)
}
