package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/repository"
	"vmp-edtech-backend/pkg/logger"
	"vmp-edtech-backend/pkg/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// memModules keeps modules in memory in place of MongoDB.
type memModules struct {
	mu   sync.Mutex
	seq  int
	byID map[string]domain.Module
}

func (r *memModules) Create(ctx context.Context, m *domain.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.byID {
		if other.CourseID == m.CourseID && other.Order == m.Order {
			return domain.ErrDuplicateOrder
		}
	}
	r.seq++
	m.ID = fmt.Sprintf("mod-%d", r.seq)
	m.CreatedAt = time.Now()
	r.byID[m.ID] = *m
	return nil
}

func (r *memModules) GetByID(ctx context.Context, id string) (*domain.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("module %w", domain.ErrNotFound)
	}
	return &m, nil
}

func (r *memModules) GetByCourseID(ctx context.Context, courseID uint) ([]domain.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []domain.Module
	for _, m := range r.byID {
		if m.CourseID == courseID {
			list = append(list, m)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Order < list[j].Order })
	return list, nil
}

func (r *memModules) GetByTaskID(ctx context.Context, taskID string) (*domain.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byID {
		if _, ok := m.TaskByID(taskID); ok {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("module %w", domain.ErrNotFound)
}

func (r *memModules) Update(ctx context.Context, m *domain.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[m.ID]; !ok {
		return fmt.Errorf("module %w", domain.ErrNotFound)
	}
	r.byID[m.ID] = *m
	return nil
}

func (r *memModules) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *memModules) DeleteByCourseID(ctx context.Context, courseID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.byID {
		if m.CourseID == courseID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

type memPhotos struct {
	mu    sync.Mutex
	seq   int
	files map[string][]byte
}

func (s *memPhotos) Upload(ctx context.Context, file io.Reader, filename string, size int64, meta domain.PhotoMetadata) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("photo-%d", s.seq)
	s.files[id] = data
	return id, nil
}

func (s *memPhotos) Download(ctx context.Context, fileID string) (io.ReadCloser, *domain.PhotoInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[fileID]
	if !ok {
		return nil, nil, fmt.Errorf("photo %w", domain.ErrNotFound)
	}
	info := &domain.PhotoInfo{ID: fileID, Filename: fileID + ".jpg", ContentType: "image/jpeg", Size: int64(len(data))}
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

func (s *memPhotos) Delete(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, fileID)
	return nil
}

type recordingNotifier struct {
	mu          sync.Mutex
	quotes      []domain.Quote
	credentials []domain.Credential
	resetURLs   map[string]string // email -> link
	welcomes    []domain.QuoteConversion
	err         error
}

func (n *recordingNotifier) NotifyQuote(ctx context.Context, quote *domain.Quote) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.quotes = append(n.quotes, *quote)
	return n.err
}

func (n *recordingNotifier) NotifyCredential(ctx context.Context, user *domain.User, course *domain.Course, cred *domain.Credential) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.credentials = append(n.credentials, *cred)
	return n.err
}

func (n *recordingNotifier) NotifyPasswordReset(ctx context.Context, user *domain.User, resetURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.resetURLs == nil {
		n.resetURLs = map[string]string{}
	}
	n.resetURLs[user.Email] = resetURL
	return n.err
}

func (n *recordingNotifier) NotifyCompanyWelcome(ctx context.Context, conv *domain.QuoteConversion) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, *conv)
	return n.err
}

func (n *recordingNotifier) resetURL(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resetURLs[email]
}

type testEnv struct {
	db       *gorm.DB
	modules  *memModules
	photos   *memPhotos
	notifier *recordingNotifier

	auth        domain.AuthUsecase
	users       domain.UserUsecase
	companies   domain.CompanyUsecase
	courses     domain.CourseUsecase
	enrollments domain.EnrollmentUsecase
	quizzes     domain.QuizUsecase
	evidence    domain.EvidenceUsecase
	credentials domain.CredentialUsecase
	quotes      domain.QuoteUsecase
	dashboard   domain.DashboardUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&domain.Company{},
		&domain.User{},
		&domain.Course{},
		&domain.Enrollment{},
		&domain.ModuleProgress{},
		&domain.Exam{},
		&domain.Evidence{},
		&domain.Credential{},
		&domain.Quote{},
		&domain.PasswordResetToken{},
	))

	env := &testEnv{
		db:       db,
		modules:  &memModules{byID: map[string]domain.Module{}},
		photos:   &memPhotos{files: map[string][]byte{}},
		notifier: &recordingNotifier{},
	}
	log := logger.NewNop()

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewModuleProgressRepository(db)
	examRepo := repository.NewExamRepository(db)
	evidenceRepo := repository.NewEvidenceRepository(db)
	credRepo := repository.NewCredentialRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)

	env.auth = NewAuthUsecase(userRepo, companyRepo, resetRepo, utils.NewTokenManager("test-secret", time.Hour), env.notifier, log, "https://vmp.test/")
	env.users = NewUserUsecase(userRepo, companyRepo, enrollmentRepo, env.auth, log)
	env.companies = NewCompanyUsecase(companyRepo)
	env.courses = NewCourseUsecase(courseRepo, env.modules, enrollmentRepo, progressRepo, 70)
	env.credentials = NewCredentialUsecase(credRepo, enrollmentRepo, userRepo, env.notifier, log, "VMP", "https://vmp.test")
	env.enrollments = NewEnrollmentUsecase(courseRepo, env.modules, enrollmentRepo, progressRepo, examRepo, evidenceRepo, env.credentials, log)
	env.quizzes = NewQuizUsecase(env.modules, enrollmentRepo, progressRepo, examRepo, log)
	env.evidence = NewEvidenceUsecase(env.modules, enrollmentRepo, progressRepo, evidenceRepo, env.photos, log)
	env.quotes = NewQuoteUsecase(quoteRepo, courseRepo, env.notifier, log)
	env.dashboard = NewDashboardUsecase(userRepo, companyRepo, courseRepo, enrollmentRepo, credRepo, quoteRepo, evidenceRepo)
	return env
}

func (e *testEnv) register(t *testing.T, email string, role domain.Role, companyID *uint) domain.Actor {
	t.Helper()
	user := &domain.User{FirstName: "Test", LastName: "User", Email: email, Password: "secreto123", Role: role, CompanyID: companyID}
	require.NoError(t, e.auth.Register(context.Background(), user))
	return domain.Actor{UserID: user.ID, Role: role, CompanyID: companyID}
}

// drivingCourse is a THEORY, QUIZ (5 questions, correct option 0) and
// PRACTICE (one task with photo) course.
type drivingCourse struct {
	course   *domain.Course
	theory   *domain.Module
	quiz     *domain.Module
	practice *domain.Module
}

func (e *testEnv) createDrivingCourse(t *testing.T) drivingCourse {
	t.Helper()
	ctx := context.Background()
	dc := drivingCourse{course: &domain.Course{Code: "MD-01", Name: "Manejo Defensivo", DurationHours: 8, Active: true}}
	require.NoError(t, e.courses.CreateCourse(ctx, dc.course))

	dc.theory = &domain.Module{CourseID: dc.course.ID, Title: "Normas de tránsito", Kind: domain.KindTheory, ContentHTML: "<p>Normas</p>"}
	require.NoError(t, e.courses.AddModule(ctx, dc.theory))

	dc.quiz = &domain.Module{CourseID: dc.course.ID, Title: "Evaluación", Kind: domain.KindQuiz}
	for i := 0; i < 5; i++ {
		dc.quiz.Questions = append(dc.quiz.Questions, domain.Question{
			Prompt:        fmt.Sprintf("Pregunta %d", i+1),
			Options:       []string{"correcta", "incorrecta"},
			CorrectOption: 0,
		})
	}
	require.NoError(t, e.courses.AddModule(ctx, dc.quiz))

	dc.practice = &domain.Module{
		CourseID: dc.course.ID,
		Title:    "Revisión del vehículo",
		Kind:     domain.KindPractice,
		Tasks:    []domain.PracticalTask{{Description: "Foto de neumáticos", RequiresPhoto: true}},
	}
	require.NoError(t, e.courses.AddModule(ctx, dc.practice))
	return dc
}

// answers marks the first `correct` questions right and the rest wrong.
func (dc drivingCourse) answers(correct int) map[string]int {
	out := map[string]int{}
	for i, q := range dc.quiz.Questions {
		if i < correct {
			out[q.ID] = 0
		} else {
			out[q.ID] = 1
		}
	}
	return out
}

func statuses(p *domain.CourseProgress) []domain.ModuleStatus {
	out := make([]domain.ModuleStatus, 0, len(p.Modules))
	for _, m := range p.Modules {
		out = append(out, m.Status)
	}
	return out
}

func photo() (io.Reader, int64) {
	data := []byte("\xff\xd8\xff\xe0 fake jpeg")
	return bytes.NewReader(data), int64(len(data))
}
