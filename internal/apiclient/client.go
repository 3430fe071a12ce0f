// Package apiclient is a typed client for the /api surface. It attaches the
// session token, normalizes error bodies and never retries.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/progress"

	"github.com/go-resty/resty/v2"
)

var (
	ErrNetwork        = errors.New("no se pudo conectar con el servidor, verifique su conexión")
	ErrSessionInvalid = errors.New("sesión inválida o expirada, inicie sesión nuevamente")
)

const unknownError = "Error desconocido"

// APIError is a non-2xx answer other than a 401 on an authenticated call.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return e.Detail
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.rc.SetTimeout(d) }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

type Client struct {
	rc *resty.Client

	mu    sync.RWMutex
	token string
}

// New builds a client for baseURL, which includes the /api prefix.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		rc: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetRetryCount(0).
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) request(ctx context.Context, authenticated bool) *resty.Request {
	req := c.rc.R().SetContext(ctx)
	if authenticated {
		if token := c.Token(); token != "" {
			req.SetAuthToken(token)
		}
	}
	return req
}

// do runs req and decodes a 2xx JSON body into out.
func (c *Client) do(req *resty.Request, method, path string, out interface{}) error {
	authenticated := req.Token != ""

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode() == http.StatusUnauthorized && authenticated {
		return ErrSessionInvalid
	}
	if resp.IsError() {
		return decodeError(resp)
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *resty.Response) error {
	apiErr := &APIError{Status: resp.StatusCode(), Detail: unknownError}

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Detail != "" {
		apiErr.Detail = body.Detail
	}
	return apiErr
}

func id(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// ========== AUTH ==========

type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        domain.User `json:"user"`
}

// Login stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	req := c.request(ctx, false).SetBody(map[string]string{"email": email, "password": password})
	if err := c.do(req, http.MethodPost, "/auth/login", &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// ========== COURSES & ENROLLMENT ==========

func (c *Client) GetCourse(ctx context.Context, courseID uint) (*domain.CourseDetail, error) {
	var out domain.CourseDetail
	req := c.request(ctx, true).SetPathParam("id", id(courseID))
	if err := c.do(req, http.MethodGet, "/cursos/{id}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetEnrollment(ctx context.Context, courseID uint) (*domain.Enrollment, error) {
	var out domain.Enrollment
	req := c.request(ctx, true).SetPathParam("cursoId", id(courseID))
	if err := c.do(req, http.MethodGet, "/inscripciones/{cursoId}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Enroll(ctx context.Context, courseID uint) (*domain.Enrollment, error) {
	var out domain.Enrollment
	req := c.request(ctx, true).SetPathParam("cursoId", id(courseID))
	if err := c.do(req, http.MethodPost, "/inscripciones/{cursoId}/inscribir", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartModule(ctx context.Context, courseID uint, moduleID string) (*domain.CourseProgress, error) {
	var out domain.CourseProgress
	req := c.request(ctx, true).SetPathParams(map[string]string{"cursoId": id(courseID), "moduloId": moduleID})
	if err := c.do(req, http.MethodPost, "/inscripciones/{cursoId}/modulos/{moduloId}/iniciar", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompletionResult is the answer of CompleteModule.
type CompletionResult struct {
	domain.CompleteModuleResult
}

// CourseCompleted reports that this call moved the enrollment to 100%.
func (r *CompletionResult) CourseCompleted() bool {
	return r.CompleteModuleResult.CourseCompleted
}

func (c *Client) CompleteModule(ctx context.Context, courseID uint, moduleID string, quizScore *float64, quizPassed *bool) (*CompletionResult, error) {
	body := struct {
		ModuleID   string   `json:"moduloId"`
		QuizScore  *float64 `json:"calificacionQuiz,omitempty"`
		QuizPassed *bool    `json:"aprobadoQuiz,omitempty"`
	}{moduleID, quizScore, quizPassed}

	var out CompletionResult
	req := c.request(ctx, true).
		SetPathParams(map[string]string{"cursoId": id(courseID), "moduloId": moduleID}).
		SetBody(body)
	if err := c.do(req, http.MethodPost, "/inscripciones/{cursoId}/modulos/{moduloId}/completar", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Progress fetches the course and the enrollment and derives the module
// statuses locally. Modules the learner opened but did not finish show up
// as AVAILABLE since the enrollment carries only the completed set.
func (c *Client) Progress(ctx context.Context, courseID uint) (*domain.CourseProgress, error) {
	course, err := c.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	enrollment, err := c.GetEnrollment(ctx, courseID)
	if err != nil {
		return nil, err
	}

	modules := make([]domain.Module, 0, len(course.Modules))
	for _, m := range course.Modules {
		modules = append(modules, domain.Module{ID: m.ID, CourseID: courseID, Title: m.Title, Kind: m.Kind, Order: m.Order})
	}
	states, err := progress.ComputeModuleStatus(modules, enrollment.CompletedModules, nil)
	if err != nil {
		return nil, err
	}

	return &domain.CourseProgress{
		Enrollment: *enrollment,
		Modules:    states,
		Percentage: progress.Percentage(progress.CompletedCount(states), len(states)),
		Next:       progress.NextModule(states),
	}, nil
}

// ========== QUIZ & EVIDENCE ==========

func (c *Client) SubmitQuiz(ctx context.Context, courseID uint, moduleID string, answers map[string]int) (*domain.QuizResult, error) {
	body := map[string]interface{}{"cursoId": courseID, "moduloId": moduleID, "respuestas": answers}

	var out domain.QuizResult
	req := c.request(ctx, true).SetBody(body)
	if err := c.do(req, http.MethodPost, "/examenes/enviar-quiz", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadEvidence sends the photo once; a failure is returned for the
// learner to retry.
func (c *Client) UploadEvidence(ctx context.Context, taskID, filename string, photo io.Reader, comment string) (*domain.Evidence, error) {
	form := map[string]string{"tareaId": taskID}
	if comment != "" {
		form["comentario"] = comment
	}

	var out struct {
		Success  bool            `json:"success"`
		Evidence domain.Evidence `json:"evidencia"`
	}
	req := c.request(ctx, true).SetFileReader("file", filename, photo).SetFormData(form)
	if err := c.do(req, http.MethodPost, "/evidencias/upload", &out); err != nil {
		return nil, err
	}
	return &out.Evidence, nil
}

func (c *Client) EvaluateEvidence(ctx context.Context, evidenceID uint, decision domain.EvidenceStatus, feedback string) (*domain.Evidence, error) {
	body := map[string]string{"estado": string(decision)}
	if feedback != "" {
		body["feedback"] = feedback
	}

	var out domain.Evidence
	req := c.request(ctx, true).SetPathParam("id", id(evidenceID)).SetBody(body)
	if err := c.do(req, http.MethodPut, "/evidencias/{id}/evaluar", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ========== PUBLIC ==========

// ValidateCredential is sent without the session token.
func (c *Client) ValidateCredential(ctx context.Context, number string) (*domain.CredentialValidation, error) {
	var out domain.CredentialValidation
	req := c.request(ctx, false).SetPathParam("codigo", number)
	if err := c.do(req, http.MethodGet, "/public/validar/{codigo}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
