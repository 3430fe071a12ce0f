package http

import (
	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	CORSOrigins     []string
	Redis           *redis.Client
	PublicRateLimit int
}

func InitRouter(handler *Handler, tokens *utils.TokenManager, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(handler.Log), CORS(cfg.CORSOrigins))
	r.MaxMultipartMemory = 8 << 20

	limited := RateLimit(cfg.Redis, cfg.PublicRateLimit, handler.Log)

	// Public Routes
	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)
		api.POST("/auth/forgot-password", limited, handler.ForgotPassword)
		api.POST("/auth/reset-password", limited, handler.ResetPassword)
		api.GET("/public/validar/:codigo", limited, handler.ValidateCredential)
		api.POST("/cotizaciones", limited, handler.CreateQuote)
	}

	// Protected Routes (every role)
	protected := api.Group("/")
	protected.Use(AuthMiddleware(tokens))
	{
		protected.GET("/auth/me", handler.Me)

		protected.GET("/usuarios/:id", handler.GetUser)
		protected.PUT("/usuarios/:id", handler.UpdateUser)

		protected.GET("/cursos", handler.ListCourses)
		protected.GET("/cursos/:id", handler.GetCourse)
		protected.GET("/cursos/:id/modulos/:moduloId", handler.GetModule)

		protected.GET("/inscripciones/mis-cursos", handler.MyCourses)
		protected.GET("/inscripciones/:cursoId", handler.GetEnrollment)
		protected.GET("/inscripciones/:cursoId/progreso", handler.GetProgress)
		protected.POST("/inscripciones/:cursoId/inscribir", handler.Enroll)
		protected.POST("/inscripciones/:cursoId/modulos/:moduloId/iniciar", handler.StartModule)
		protected.POST("/inscripciones/:cursoId/modulos/:moduloId/completar", handler.CompleteModule)

		protected.POST("/examenes/enviar-quiz", handler.SubmitQuiz)

		protected.POST("/evidencias/upload", handler.UploadEvidence)
		protected.GET("/evidencias/tarea/:tareaId", handler.ListTaskEvidence)
		protected.DELETE("/evidencias/:id", handler.DeleteEvidence)
		protected.GET("/evidencias/:id/foto", handler.EvidencePhoto)

		protected.GET("/credenciales/mis-credenciales", handler.MyCredentials)
	}

	// Instructor & Super Admin Only
	staff := api.Group("/")
	staff.Use(AuthMiddleware(tokens, domain.RoleInstructor, domain.RoleSuperAdmin))
	{
		staff.POST("/usuarios", handler.CreateUser)
		staff.GET("/usuarios", handler.ListUsers)
		staff.DELETE("/usuarios/:id", handler.DeleteUser)

		staff.POST("/cursos", handler.CreateCourse)
		staff.PUT("/cursos/:id", handler.UpdateCourse)
		staff.POST("/cursos/:id/modulos", handler.AddModule)
		staff.PUT("/cursos/:id/modulos/:moduloId", handler.UpdateModule)
		staff.DELETE("/cursos/:id/modulos/:moduloId", handler.DeleteModule)

		staff.GET("/evidencias/revision", handler.ListPendingEvidence)
		staff.PUT("/evidencias/:id/evaluar", handler.EvaluateEvidence)

		staff.GET("/credenciales", handler.ListCredentials)
		staff.POST("/credenciales/generar", handler.IssueCredential)
	}

	// Super Admin Only
	admin := api.Group("/")
	admin.Use(AuthMiddleware(tokens, domain.RoleSuperAdmin))
	{
		admin.DELETE("/cursos/:id", handler.DeleteCourse)
		admin.DELETE("/credenciales/:id", handler.DeleteCredential)

		admin.POST("/empresas", handler.CreateCompany)
		admin.GET("/empresas", handler.ListCompanies)
		admin.GET("/empresas/:id", handler.GetCompany)
		admin.PUT("/empresas/:id", handler.UpdateCompany)
		admin.DELETE("/empresas/:id", handler.DeactivateCompany)

		admin.GET("/cotizaciones", handler.ListQuotes)
		admin.PATCH("/cotizaciones/:id", handler.UpdateQuoteStatus)
		admin.POST("/cotizaciones/:id/convert", handler.ConvertQuote)

		admin.GET("/metrics/overview", handler.AdminOverview)
		admin.GET("/metrics/courses", handler.CourseMetrics)
		admin.GET("/metrics/conversions", handler.ConversionMetrics)
	}

	return r
}
