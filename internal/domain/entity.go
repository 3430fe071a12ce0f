package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleSuperAdmin Role = "super_admin"
)

// IsStaff reports whether the role may review evidence and manage courses.
func (r Role) IsStaff() bool {
	return r == RoleInstructor || r == RoleSuperAdmin
}

type Company struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"nombre" gorm:"not null"`
	CUIT      string    `json:"cuit" gorm:"uniqueIndex;not null"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"telefono,omitempty"`
	Address   string    `json:"direccion,omitempty"`
	Active    bool      `json:"activo" gorm:"default:true"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	FirstName string    `json:"nombre" gorm:"not null"`
	LastName  string    `json:"apellido" gorm:"not null"`
	DNI       string    `json:"dni" gorm:"index"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Role      Role      `json:"rol" gorm:"type:varchar(20);default:'student'"`
	CompanyID *uint     `json:"empresaId,omitempty" gorm:"index"`
	Active    bool      `json:"activo" gorm:"default:true"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Relations
	Company *Company `json:"empresa,omitempty" gorm:"foreignKey:CompanyID"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// PasswordResetToken - single-use link sent by the forgot-password flow
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"uniqueIndex;not null"`
	UserID    uint      `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

const DefaultPassingScore = 70

type Course struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Code           string    `json:"codigo" gorm:"uniqueIndex;not null"`
	Name           string    `json:"nombre" gorm:"not null"`
	Description    string    `json:"descripcion" gorm:"type:text"`
	DurationHours  int       `json:"duracionHoras"`
	ValidityMonths *int      `json:"vigenciaMeses,omitempty"`
	PassingScore   int       `json:"notaAprobacion" gorm:"default:70"` // minimum quiz score, 0-100
	CompanyID      *uint     `json:"empresaId,omitempty" gorm:"index"` // nil: open to every company
	InstructorID   *uint     `json:"instructorId,omitempty" gorm:"index"`
	Active         bool      `json:"activo" gorm:"default:true"`
	CreatedAt      time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Relations
	Company *Company `json:"empresa,omitempty" gorm:"foreignKey:CompanyID"`
}

// AvailableTo reports whether a learner of the given company may enroll.
func (c Course) AvailableTo(companyID *uint) bool {
	if c.CompanyID == nil {
		return true
	}
	return companyID != nil && *companyID == *c.CompanyID
}

// Threshold returns the quiz passing score, falling back to the platform default.
func (c Course) Threshold() float64 {
	if c.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return float64(c.PassingScore)
}

type EnrollmentStatus string

const (
	EnrollmentNotStarted EnrollmentStatus = "NO_INICIADO"
	EnrollmentInProgress EnrollmentStatus = "EN_PROGRESO"
	EnrollmentCompleted  EnrollmentStatus = "COMPLETADO"
)

// Enrollment - learner bound to a Course
type Enrollment struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	UserID     uint             `json:"alumnoId" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID   uint             `json:"cursoId" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	Progress   int              `json:"progreso" gorm:"default:0"` // 0-100
	Status     EnrollmentStatus `json:"estado" gorm:"type:varchar(20);default:'NO_INICIADO'"`
	StartedAt  *time.Time       `json:"inicioDate,omitempty"`
	FinishedAt *time.Time       `json:"finDate,omitempty"`
	CreatedAt  time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`

	// Filled from ModuleProgress, not persisted on this table
	CompletedModules []string `json:"modulosCompletados" gorm:"-"`

	// Relations
	User   User   `json:"alumno,omitempty" gorm:"foreignKey:UserID"`
	Course Course `json:"curso,omitempty" gorm:"foreignKey:CourseID"`
}

// ApplyProgress sets the completion percentage and moves the status along.
func (e *Enrollment) ApplyProgress(pct int, now time.Time) {
	e.Progress = pct
	if e.StartedAt == nil {
		e.StartedAt = &now
	}
	if pct >= 100 {
		e.Status = EnrollmentCompleted
		if e.FinishedAt == nil {
			e.FinishedAt = &now
		}
		return
	}
	e.Status = EnrollmentInProgress
}

// ModuleProgress - one row per module a learner has opened. IsComplete=false means in progress.
type ModuleProgress struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"alumnoId" gorm:"not null;uniqueIndex:idx_progress_user_module"`
	ModuleID    string     `json:"moduloId" gorm:"not null;uniqueIndex:idx_progress_user_module"` // MongoDB ObjectID
	CourseID    uint       `json:"cursoId" gorm:"not null;index"`
	IsComplete  bool       `json:"completado" gorm:"default:false"`
	QuizScore   *float64   `json:"calificacionQuiz,omitempty"`
	CompletedAt *time.Time `json:"completadoAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Exam - one graded quiz attempt
type Exam struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"alumnoId" gorm:"not null;index"`
	CourseID  uint           `json:"cursoId" gorm:"not null;index"`
	ModuleID  string         `json:"moduloId" gorm:"not null;index"`
	Answers   datatypes.JSON `json:"respuestas"`
	Score     float64        `json:"calificacion"`
	Passed    bool           `json:"aprobado"`
	Correct   int            `json:"respuestasCorrectas"`
	Total     int            `json:"totalPreguntas"`
	CreatedAt time.Time      `json:"realizadoAt" gorm:"autoCreateTime"`
}

type EvidenceStatus string

const (
	EvidencePending  EvidenceStatus = "PENDIENTE"
	EvidenceApproved EvidenceStatus = "APROBADA"
	EvidenceRejected EvidenceStatus = "RECHAZADA"
)

// Evidence - photo uploaded by a learner for a practical task
type Evidence struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TaskID      string         `json:"tareaId" gorm:"not null;index"`
	ModuleID    string         `json:"moduloId" gorm:"not null;index"`
	CourseID    uint           `json:"cursoId" gorm:"not null;index"`
	UserID      uint           `json:"alumnoId" gorm:"not null;index"`
	PhotoFileID string         `json:"fotoId" gorm:"not null"` // GridFS File ID
	Comment     string         `json:"comentario,omitempty" gorm:"type:text"`
	Status      EvidenceStatus `json:"estado" gorm:"type:varchar(20);default:'PENDIENTE';index"`
	Feedback    string         `json:"feedback,omitempty" gorm:"type:text"`
	EvaluatorID *uint          `json:"evaluadorId,omitempty"`
	EvaluatedAt *time.Time     `json:"evaluadoAt,omitempty"`
	UploadedAt  time.Time      `json:"uploadedAt" gorm:"autoCreateTime"`

	// Relations
	User *User `json:"alumno,omitempty" gorm:"foreignKey:UserID"`
}

// Credential - certificate issued on 100% completion
type Credential struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Number    string     `json:"numero" gorm:"uniqueIndex;not null"`
	UserID    uint       `json:"alumnoId" gorm:"not null;index"`
	CourseID  uint       `json:"cursoId" gorm:"not null;index"`
	CompanyID *uint      `json:"empresaId,omitempty" gorm:"index"`
	IssuedAt  time.Time  `json:"fechaEmision"`
	ExpiresAt *time.Time `json:"fechaVencimiento,omitempty"`
	VerifyURL string     `json:"qrCodeUrl"`

	// Relations
	User    User     `json:"alumno,omitempty" gorm:"foreignKey:UserID"`
	Course  Course   `json:"curso,omitempty" gorm:"foreignKey:CourseID"`
	Company *Company `json:"empresa,omitempty" gorm:"foreignKey:CompanyID"`
}

type QuoteStatus string

const (
	QuotePending   QuoteStatus = "pending"
	QuoteContacted QuoteStatus = "contacted"
	QuoteConverted QuoteStatus = "converted"
	QuoteRejected  QuoteStatus = "rejected"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuotePending, QuoteContacted, QuoteConverted, QuoteRejected:
		return true
	}
	return false
}

// Quote - sales lead captured by the landing page quoter
type Quote struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	Company         string      `json:"empresa" gorm:"not null"`
	CUIT            string      `json:"cuit,omitempty"`
	ContactName     string      `json:"nombre" gorm:"not null"`
	Email           string      `json:"email" gorm:"not null"`
	Phone           string      `json:"telefono"`
	Comments        string      `json:"comentarios,omitempty" gorm:"type:text"`
	Quantity        int         `json:"quantity"`
	Course          string      `json:"course"`
	Modality        string      `json:"modality"`
	TotalPrice      float64     `json:"totalPrice"`
	PricePerStudent float64     `json:"pricePerStudent"`
	Discount        int         `json:"discount"`
	AcceptMarketing bool        `json:"acceptMarketing"`
	AcceptTerms     bool        `json:"acceptTerms"`
	Status          QuoteStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CreatedAt       time.Time   `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time   `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ========== FILTERS & UPDATES ==========

type UserFilter struct {
	Role      Role
	CompanyID *uint
}

// UserUpdate - nil fields are left untouched
type UserUpdate struct {
	FirstName *string `json:"nombre"`
	LastName  *string `json:"apellido"`
	DNI       *string `json:"dni"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Role      *Role   `json:"rol"`
	CompanyID *uint   `json:"empresaId"`
	Active    *bool   `json:"activo"`
}

// CredentialFilter - zero fields match everything
type CredentialFilter struct {
	UserID    uint
	CourseID  uint
	CompanyID *uint
}

// QuoteConversionRequest overrides what the quote carries; empty fields fall
// back to the quote.
type QuoteConversionRequest struct {
	CompanyName    string `json:"empresaNombre"`
	CompanyCUIT    string `json:"empresaCuit"`
	CompanyAddress string `json:"empresaDireccion"`
	CompanyPhone   string `json:"empresaTelefono"`
	Students       int    `json:"cantidadAlumnos"`
}

// ConvertedStudent - learner account created by a quote conversion. The
// temporary password is only ever shown once.
type ConvertedStudent struct {
	ID                uint   `json:"id"`
	FirstName         string `json:"nombre"`
	LastName          string `json:"apellido"`
	Email             string `json:"email"`
	DNI               string `json:"dni"`
	TemporaryPassword string `json:"password_temporal"`
}

type QuoteConversion struct {
	Quote       Quote              `json:"cotizacion"`
	Company     Company            `json:"empresa"`
	Course      Course             `json:"curso"`
	Students    []ConvertedStudent `json:"alumnos"`
	Enrollments []Enrollment       `json:"inscripciones"`
	Message     string             `json:"message"`
}

// ========== MONGODB MODELS ==========

type ModuleKind string

const (
	KindTheory   ModuleKind = "TEORIA"
	KindQuiz     ModuleKind = "QUIZ"
	KindPractice ModuleKind = "PRACTICA"
)

func (k ModuleKind) Valid() bool {
	return k == KindTheory || k == KindQuiz || k == KindPractice
}

// Module - stored in MongoDB since its payload depends on the kind
type Module struct {
	ID          string          `json:"id" bson:"_id,omitempty"`
	CourseID    uint            `json:"cursoId" bson:"course_id"`
	Title       string          `json:"titulo" bson:"title"`
	Kind        ModuleKind      `json:"tipo" bson:"kind"`
	Order       int             `json:"orden" bson:"order"` // gating sequence inside the course
	ContentHTML string          `json:"contenidoHtml,omitempty" bson:"content_html,omitempty"`
	VideoURL    string          `json:"videoUrl,omitempty" bson:"video_url,omitempty"`
	Questions   []Question      `json:"preguntas,omitempty" bson:"questions,omitempty"`
	Tasks       []PracticalTask `json:"tareasPracticas,omitempty" bson:"tasks,omitempty"`
	CreatedAt   time.Time       `json:"createdAt" bson:"created_at"`
}

type Question struct {
	ID            string   `json:"id" bson:"id"`
	Prompt        string   `json:"pregunta" bson:"prompt"`
	Options       []string `json:"opciones" bson:"options"`
	CorrectOption int      `json:"respuestaCorrecta" bson:"correct_option"`
	Explanation   string   `json:"explicacion,omitempty" bson:"explanation,omitempty"`
}

type PracticalTask struct {
	ID            string `json:"id" bson:"id"`
	Description   string `json:"descripcion" bson:"description"`
	RequiresPhoto bool   `json:"requiereFoto" bson:"requires_photo"`
}

// TaskByID returns the practical task with the given id.
func (m Module) TaskByID(taskID string) (PracticalTask, bool) {
	for _, t := range m.Tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return PracticalTask{}, false
}

// ForStudent strips the answer key from quiz questions.
func (m Module) ForStudent(status ModuleStatus) StudentModule {
	sm := StudentModule{
		ID:          m.ID,
		CourseID:    m.CourseID,
		Title:       m.Title,
		Kind:        m.Kind,
		Order:       m.Order,
		ContentHTML: m.ContentHTML,
		VideoURL:    m.VideoURL,
		Tasks:       m.Tasks,
		Status:      status,
	}
	for _, q := range m.Questions {
		sm.Questions = append(sm.Questions, StudentQuestion{ID: q.ID, Prompt: q.Prompt, Options: q.Options})
	}
	return sm
}

// ========== TRACKER STATES ==========

type ModuleStatus string

const (
	StatusLocked     ModuleStatus = "LOCKED"
	StatusAvailable  ModuleStatus = "AVAILABLE"
	StatusInProgress ModuleStatus = "IN_PROGRESS"
	StatusCompleted  ModuleStatus = "COMPLETED"
)

// ModuleState - computed learner-facing status of one module
type ModuleState struct {
	ModuleID string       `json:"moduloId"`
	Title    string       `json:"titulo"`
	Kind     ModuleKind   `json:"tipo"`
	Order    int          `json:"orden"`
	Status   ModuleStatus `json:"estado"`
}

// ========== RESPONSE DTOs ==========

type StudentQuestion struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"pregunta"`
	Options []string `json:"opciones"`
}

type StudentModule struct {
	ID          string            `json:"id"`
	CourseID    uint              `json:"cursoId"`
	Title       string            `json:"titulo"`
	Kind        ModuleKind        `json:"tipo"`
	Order       int               `json:"orden"`
	ContentHTML string            `json:"contenidoHtml,omitempty"`
	VideoURL    string            `json:"videoUrl,omitempty"`
	Questions   []StudentQuestion `json:"preguntas,omitempty"`
	Tasks       []PracticalTask   `json:"tareasPracticas,omitempty"`
	Status      ModuleStatus      `json:"estado"`
}

// ModuleSummary - module entry of a course detail
type ModuleSummary struct {
	ID    string     `json:"id"`
	Title string     `json:"titulo"`
	Order int        `json:"orden"`
	Kind  ModuleKind `json:"tipo"`
}

// CourseDetail - course with its ordered modules
type CourseDetail struct {
	Course
	Modules          []ModuleSummary `json:"modulos"`
	EnrolledStudents int             `json:"inscriptos"`
	IsEnrolled       bool            `json:"inscripto"`
}

// CourseProgress - tracker view of an enrollment
type CourseProgress struct {
	Enrollment Enrollment    `json:"inscripcion"`
	Modules    []ModuleState `json:"modulos"`
	Percentage int           `json:"progreso"`
	Next       *ModuleState  `json:"proximoModulo,omitempty"`
}

// QuestionFeedback - per-question result of a quiz submission
type QuestionFeedback struct {
	QuestionID    string `json:"preguntaId"`
	Correct       bool   `json:"correcta"`
	ChosenOption  int    `json:"respuestaElegida"`
	CorrectOption int    `json:"respuestaCorrecta"`
	Explanation   string `json:"explicacion,omitempty"`
}

type QuizResult struct {
	Score    float64            `json:"calificacion"`
	Passed   bool               `json:"aprobado"`
	Correct  int                `json:"respuestasCorrectas"`
	Total    int                `json:"totalPreguntas"`
	Feedback []QuestionFeedback `json:"feedback"`
	Message  string             `json:"message"`
}

type CompleteModuleResult struct {
	Success          bool       `json:"success"`
	Progress         int        `json:"nuevoProgreso"`
	CourseCompleted  bool       `json:"cursoCompletado"`
	CredentialIssued bool       `json:"credencialGenerada"`
	CredentialNumber string     `json:"credencialNumero,omitempty"`
	Message          string     `json:"message"`
	Enrollment       Enrollment `json:"inscripcion"`
}

// MyCourseItem - enrolled course with its computed progress
type MyCourseItem struct {
	ID            uint             `json:"id"`
	Name          string           `json:"nombre"`
	Description   string           `json:"descripcion"`
	Code          string           `json:"codigo"`
	DurationHours int              `json:"duracionHoras"`
	Progress      int              `json:"progreso"`
	Status        EnrollmentStatus `json:"estado"`
	NextActivity  string           `json:"proximaActividad,omitempty"`
}

type MyCoursesStats struct {
	Active      int `json:"cursosActivos"`
	Completed   int `json:"cursosCompletados"`
	Credentials int `json:"credencialesObtenidas"`
	Hours       int `json:"horasAcumuladas"`
}

type MyCourses struct {
	Courses []MyCourseItem `json:"cursos"`
	Stats   MyCoursesStats `json:"stats"`
}

type CredentialValidationStatus string

const (
	CredentialValid    CredentialValidationStatus = "valid"
	CredentialExpired  CredentialValidationStatus = "expired"
	CredentialNotFound CredentialValidationStatus = "not_found"
)

// CredentialValidation - public view of a credential lookup
type CredentialValidation struct {
	Valid      bool                       `json:"valid"`
	Status     CredentialValidationStatus `json:"status"`
	Message    string                     `json:"message,omitempty"`
	Credential *PublicCredential          `json:"credential,omitempty"`
}

type PublicCredential struct {
	Number    string     `json:"numero"`
	IssuedAt  time.Time  `json:"fechaEmision"`
	ExpiresAt *time.Time `json:"fechaVencimiento,omitempty"`
	Student   struct {
		FirstName string `json:"nombre"`
		LastName  string `json:"apellido"`
		DNI       string `json:"dni"`
	} `json:"alumno"`
	Course struct {
		Name        string `json:"nombre"`
		Code        string `json:"codigo"`
		Description string `json:"descripcion"`
	} `json:"curso"`
	Company *struct {
		Name string `json:"nombre"`
		CUIT string `json:"cuit"`
	} `json:"empresa,omitempty"`
}

// CourseMetrics - completion figures of one course
type CourseMetrics struct {
	ID                   uint    `json:"id"`
	Name                 string  `json:"nombre"`
	Code                 string  `json:"codigo"`
	TotalEnrollments     int64   `json:"total_enrollments"`
	TotalCredentials     int64   `json:"total_credentials"`
	CompletedEnrollments int64   `json:"completed_enrollments"`
	CompletionRate       float64 `json:"completion_rate"`
}

// DailyQuotes - quotes created on one day, by current status
type DailyQuotes struct {
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Pending   int    `json:"pending"`
	Contacted int    `json:"contacted"`
	Converted int    `json:"converted"`
	Rejected  int    `json:"rejected"`
}

type ConversionMetrics struct {
	PeriodDays int           `json:"period_days"`
	StartDate  time.Time     `json:"start_date"`
	Data       []DailyQuotes `json:"data"`
}

// AdminOverview - metrics for the super-admin dashboard
type AdminOverview struct {
	Totals struct {
		Users       int64 `json:"users"`
		Companies   int64 `json:"companies"`
		Courses     int64 `json:"courses"`
		Enrollments int64 `json:"enrollments"`
		Credentials int64 `json:"credentials"`
		Quotes      int64 `json:"quotes"`
	} `json:"totals"`
	Quotes              map[QuoteStatus]int64 `json:"quotes"`
	CompletedEnrollment int64                 `json:"completedEnrollments"`
	PendingEvidence     int64                 `json:"pendingEvidence"`
	ConversionRate      float64               `json:"conversionRate"`
}
