package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	AuthUsecase       domain.AuthUsecase
	UserUsecase       domain.UserUsecase
	CompanyUsecase    domain.CompanyUsecase
	CourseUsecase     domain.CourseUsecase
	EnrollmentUsecase domain.EnrollmentUsecase
	QuizUsecase       domain.QuizUsecase
	EvidenceUsecase   domain.EvidenceUsecase
	CredentialUsecase domain.CredentialUsecase
	QuoteUsecase      domain.QuoteUsecase
	DashboardUsecase  domain.DashboardUsecase
	Log               *logger.Logger
}

func NewHandler(
	au domain.AuthUsecase,
	uu domain.UserUsecase,
	cmu domain.CompanyUsecase,
	cu domain.CourseUsecase,
	eu domain.EnrollmentUsecase,
	qu domain.QuizUsecase,
	evu domain.EvidenceUsecase,
	credu domain.CredentialUsecase,
	quu domain.QuoteUsecase,
	du domain.DashboardUsecase,
	log *logger.Logger,
) *Handler {
	return &Handler{
		AuthUsecase:       au,
		UserUsecase:       uu,
		CompanyUsecase:    cmu,
		CourseUsecase:     cu,
		EnrollmentUsecase: eu,
		QuizUsecase:       qu,
		EvidenceUsecase:   evu,
		CredentialUsecase: credu,
		QuoteUsecase:      quu,
		DashboardUsecase:  du,
		Log:               log,
	}
}

// ========== UTILITY FUNCTIONS ==========

func formatValidationErrors(err error) gin.H {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string)
		for _, f := range ve {
			fields[f.Field()] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", f.Field(), f.Tag())
		}
		return gin.H{"detail": "Validation failed", "errors": fields}
	}
	return gin.H{"detail": "Invalid request: " + err.Error()}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotEnrolled):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidLogin):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrAlreadyEnrolled),
		errors.Is(err, domain.ErrDuplicateOrder),
		errors.Is(err, domain.ErrEvidenceAlreadyEvaluated),
		errors.Is(err, domain.ErrEvidenceAlreadyApproved):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidFile),
		errors.Is(err, domain.ErrInvalidDecision),
		errors.Is(err, domain.ErrModuleLocked),
		errors.Is(err, domain.ErrQuizNotPassed),
		errors.Is(err, domain.ErrPracticeIncomplete),
		errors.Is(err, domain.ErrWrongModuleKind),
		errors.Is(err, domain.ErrEvidenceLocked),
		errors.Is(err, domain.ErrCourseNotCompleted),
		errors.Is(err, domain.ErrResetTokenInvalid),
		errors.Is(err, domain.ErrResetTokenUsed),
		errors.Is(err, domain.ErrResetTokenExpired):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes {"detail": ...}. Unexpected errors are logged and
// hidden behind a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"detail": "Error interno del servidor"})
		return
	}
	c.JSON(status, gin.H{"detail": err.Error()})
}

func getUserID(c *gin.Context) (uint, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, errors.New("user ID not found in token")
	}
	return userID.(uint), nil
}

func getActor(c *gin.Context) (domain.Actor, error) {
	userID, err := getUserID(c)
	if err != nil {
		return domain.Actor{}, err
	}
	actor := domain.Actor{UserID: userID}
	if role, ok := c.Get("role"); ok {
		actor.Role = role.(domain.Role)
	}
	if companyID, ok := c.Get("company_id"); ok {
		actor.CompanyID = companyID.(*uint)
	}
	return actor, nil
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Invalid %s", name)})
		return 0, false
	}
	return uint(id), true
}

// queryID reads an optional numeric query parameter; 0 means absent.
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Invalid %s", name)})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ========== AUTH HANDLERS ==========

type registerRequest struct {
	FirstName string `json:"nombre" binding:"required"`
	LastName  string `json:"apellido" binding:"required"`
	DNI       string `json:"dni"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	CompanyID *uint  `json:"empresaId"`
	Role      string `json:"rol" binding:"omitempty,oneof=student instructor super_admin"`
}

func (r registerRequest) user() *domain.User {
	return &domain.User{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		DNI:       r.DNI,
		Email:     r.Email,
		Password:  r.Password,
		CompanyID: r.CompanyID,
		Role:      domain.Role(r.Role),
	}
}

// Register is public and always creates a student.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	user := req.user()
	user.Role = domain.RoleStudent
	if err := h.AuthUsecase.Register(c.Request.Context(), user); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Usuario registrado", "user": user})
}


func (h *Handler) Login(c *gin.Context) {
	var creds struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	token, user, err := h.AuthUsecase.Login(c.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer", "user": user})
}

func (h *Handler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	user, err := h.AuthUsecase.Me(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	if err := h.AuthUsecase.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Si el email existe en nuestro sistema, recibirás un link de recuperación."})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	if err := h.AuthUsecase.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contraseña actualizada exitosamente. Ya puedes iniciar sesión con tu nueva contraseña."})
}

// ========== USER HANDLERS ==========

// CreateUser lets a super admin create any account and an instructor create
// learners of their company.
func (h *Handler) CreateUser(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	user := req.user()
	if err := h.UserUsecase.Create(c.Request.Context(), actor, user); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) ListUsers(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	companyID, ok := queryID(c, "empresaId")
	if !ok {
		return
	}
	filter := domain.UserFilter{Role: domain.Role(c.Query("rol"))}
	if companyID != 0 {
		filter.CompanyID = &companyID
	}

	users, err := h.UserUsecase.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	user, err := h.UserUsecase.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	var upd domain.UserUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	user, err := h.UserUsecase.Update(c.Request.Context(), actor, id, upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	deactivated, err := h.UserUsecase.Delete(c.Request.Context(), actor, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if deactivated {
		c.JSON(http.StatusOK, gin.H{"message": "Usuario desactivado porque tiene inscripciones", "desactivado": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Usuario eliminado exitosamente", "desactivado": false})
}

// ========== COMPANY HANDLERS ==========

func (h *Handler) CreateCompany(c *gin.Context) {
	var company domain.Company
	if err := c.ShouldBindJSON(&company); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	company.ID = 0
	if err := h.CompanyUsecase.Create(c.Request.Context(), &company); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *Handler) ListCompanies(c *gin.Context) {
	companies, err := h.CompanyUsecase.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (h *Handler) GetCompany(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	company, err := h.CompanyUsecase.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var company domain.Company
	if err := c.ShouldBindJSON(&company); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	company.ID = id
	if err := h.CompanyUsecase.Update(c.Request.Context(), &company); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *Handler) DeactivateCompany(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	company, err := h.CompanyUsecase.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	company.Active = false
	if err := h.CompanyUsecase.Update(c.Request.Context(), company); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Empresa desactivada"})
}

// ========== COURSE HANDLERS ==========

func (h *Handler) ListCourses(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	courses, err := h.CourseUsecase.ListCourses(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *Handler) GetCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	detail, err := h.CourseUsecase.GetCourseDetails(c.Request.Context(), courseID, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) CreateCourse(c *gin.Context) {
	var course domain.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	if err := h.CourseUsecase.CreateCourse(c.Request.Context(), &course); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *Handler) UpdateCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var course domain.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	course.ID = courseID
	if err := h.CourseUsecase.UpdateCourse(c.Request.Context(), &course); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *Handler) DeleteCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	deactivated, err := h.CourseUsecase.DeleteCourse(c.Request.Context(), courseID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if deactivated {
		c.JSON(http.StatusOK, gin.H{"message": "Curso desactivado porque tiene inscripciones activas", "desactivado": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Curso eliminado exitosamente", "desactivado": false})
}

// GetModule returns the full module to staff and the answer-free view to
// learners.
func (h *Handler) GetModule(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	moduleID := c.Param("moduloId")

	if actor.Role.IsStaff() {
		module, err := h.CourseUsecase.GetModule(c.Request.Context(), moduleID)
		if err == nil && module.CourseID != courseID {
			err = fmt.Errorf("module %w", domain.ErrNotFound)
		}
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, module)
		return
	}

	module, err := h.CourseUsecase.GetModuleForStudent(c.Request.Context(), actor.UserID, courseID, moduleID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *Handler) AddModule(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var module domain.Module
	if err := c.ShouldBindJSON(&module); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	module.CourseID = courseID
	if err := h.CourseUsecase.AddModule(c.Request.Context(), &module); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, module)
}

func (h *Handler) UpdateModule(c *gin.Context) {
	var module domain.Module
	if err := c.ShouldBindJSON(&module); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	module.ID = c.Param("moduloId")
	if err := h.CourseUsecase.UpdateModule(c.Request.Context(), &module); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *Handler) DeleteModule(c *gin.Context) {
	if err := h.CourseUsecase.DeleteModule(c.Request.Context(), c.Param("moduloId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Módulo eliminado"})
}

// ========== ENROLLMENT HANDLERS ==========

func (h *Handler) MyCourses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	data, err := h.EnrollmentUsecase.MyCourses(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) GetEnrollment(c *gin.Context) {
	courseID, ok := parseID(c, "cursoId")
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	enrollment, err := h.EnrollmentUsecase.GetEnrollment(c.Request.Context(), userID, courseID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *Handler) GetProgress(c *gin.Context) {
	courseID, ok := parseID(c, "cursoId")
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	progress, err := h.EnrollmentUsecase.Progress(c.Request.Context(), userID, courseID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *Handler) Enroll(c *gin.Context) {
	courseID, ok := parseID(c, "cursoId")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	enrollment, err := h.EnrollmentUsecase.Enroll(c.Request.Context(), actor, courseID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

func (h *Handler) StartModule(c *gin.Context) {
	courseID, ok := parseID(c, "cursoId")
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	progress, err := h.EnrollmentUsecase.StartModule(c.Request.Context(), userID, courseID, c.Param("moduloId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

type completeModuleRequest struct {
	ModuleID   string   `json:"moduloId"`
	QuizScore  *float64 `json:"calificacionQuiz"`
	QuizPassed *bool    `json:"aprobadoQuiz"`
}

func (h *Handler) CompleteModule(c *gin.Context) {
	courseID, ok := parseID(c, "cursoId")
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}

	var req completeModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	moduleID := c.Param("moduloId")
	if req.ModuleID != "" && req.ModuleID != moduleID {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "moduloId does not match the route"})
		return
	}

	res, err := h.EnrollmentUsecase.CompleteModule(c.Request.Context(), userID, courseID, moduleID, req.QuizScore, req.QuizPassed)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ========== QUIZ HANDLERS ==========

type submitQuizRequest struct {
	CourseID uint           `json:"cursoId" binding:"required"`
	ModuleID string         `json:"moduloId" binding:"required"`
	Answers  map[string]int `json:"respuestas" binding:"required"`
}

func (h *Handler) SubmitQuiz(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	var req submitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	result, err := h.QuizUsecase.SubmitQuiz(c.Request.Context(), userID, req.CourseID, req.ModuleID, req.Answers)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ========== CREDENTIAL HANDLERS ==========

func (h *Handler) MyCredentials(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	creds, err := h.CredentialUsecase.GetUserCredentials(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, creds)
}

// IssueCredential lets staff issue the credential of a completed enrollment
// when the automatic issue failed.
func (h *Handler) IssueCredential(c *gin.Context) {
	var req struct {
		UserID   uint `json:"alumnoId" binding:"required"`
		CourseID uint `json:"cursoId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	cred, created, err := h.CredentialUsecase.Issue(c.Request.Context(), req.UserID, req.CourseID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"credencial": cred, "nueva": created})
}

// ListCredentials filters by alumnoId, cursoId and empresaId.
func (h *Handler) ListCredentials(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	userID, ok := queryID(c, "alumnoId")
	if !ok {
		return
	}
	courseID, ok := queryID(c, "cursoId")
	if !ok {
		return
	}
	companyID, ok := queryID(c, "empresaId")
	if !ok {
		return
	}
	filter := domain.CredentialFilter{UserID: userID, CourseID: courseID}
	if companyID != 0 {
		filter.CompanyID = &companyID
	}

	creds, err := h.CredentialUsecase.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, creds)
}

func (h *Handler) DeleteCredential(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.CredentialUsecase.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Credencial eliminada"})
}

func (h *Handler) ValidateCredential(c *gin.Context) {
	res, err := h.CredentialUsecase.Validate(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ========== QUOTE HANDLERS ==========

type quoteRequest struct {
	Company         string `json:"empresa" binding:"required"`
	CUIT            string `json:"cuit"`
	ContactName     string `json:"nombre" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"telefono" binding:"required"`
	Comments        string `json:"comentarios"`
	Quantity        int    `json:"quantity" binding:"required,min=1,max=500"`
	Course          string `json:"course" binding:"required"`
	Modality        string `json:"modality" binding:"required"`
	AcceptMarketing bool   `json:"acceptMarketing"`
	AcceptTerms     bool   `json:"acceptTerms"`
}

func (h *Handler) CreateQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	quote := &domain.Quote{
		Company:         req.Company,
		CUIT:            req.CUIT,
		ContactName:     req.ContactName,
		Email:           req.Email,
		Phone:           req.Phone,
		Comments:        req.Comments,
		Quantity:        req.Quantity,
		Course:          req.Course,
		Modality:        req.Modality,
		AcceptMarketing: req.AcceptMarketing,
		AcceptTerms:     req.AcceptTerms,
	}
	if err := h.QuoteUsecase.Create(c.Request.Context(), quote); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Cotización recibida. Nos contactaremos a la brevedad.",
		"quote":   quote,
	})
}

func (h *Handler) ListQuotes(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	quotes, err := h.QuoteUsecase.List(c.Request.Context(), domain.QuoteStatus(c.Query("status")), skip, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotes)
}

func (h *Handler) UpdateQuoteStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status domain.QuoteStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	quote, err := h.QuoteUsecase.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ConvertQuote accepts an empty body; every field falls back to the quote.
func (h *Handler) ConvertQuote(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req domain.QuoteConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	if req.Students < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "cantidadAlumnos must not be negative"})
		return
	}

	conv, err := h.QuoteUsecase.Convert(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// ========== DASHBOARD HANDLERS ==========

func (h *Handler) AdminOverview(c *gin.Context) {
	data, err := h.DashboardUsecase.GetAdminOverview(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) CourseMetrics(c *gin.Context) {
	data, err := h.DashboardUsecase.CourseMetrics(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": data})
}

func (h *Handler) ConversionMetrics(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid days"})
		return
	}
	data, err := h.DashboardUsecase.ConversionMetrics(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
