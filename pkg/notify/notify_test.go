package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleQuote() *domain.Quote {
	return &domain.Quote{
		ID:              3,
		Company:         "Transportes Sur",
		ContactName:     "Ana",
		Email:           "ana@sur.test",
		Phone:           "1155550000",
		Quantity:        12,
		Course:          "defensivo",
		Modality:        "online",
		TotalPrice:      40800,
		PricePerStudent: 3400,
		Discount:        15,
	}
}

func TestQuoteMessages(t *testing.T) {
	msgs := QuoteMessages(sampleQuote(), "ventas@vmp.test")
	require.Len(t, msgs, 2)
	assert.Equal(t, "ventas@vmp.test", msgs[0].To)
	assert.Equal(t, "Nueva Cotización: Transportes Sur - 12 conductores", msgs[0].Subject)
	assert.Contains(t, msgs[0].Text, "descuento 15%")
	assert.Equal(t, "ana@sur.test", msgs[1].To)

	assert.Len(t, QuoteMessages(sampleQuote(), ""), 1)
}

func sampleConversion() *domain.QuoteConversion {
	return &domain.QuoteConversion{
		Quote:   *sampleQuote(),
		Company: domain.Company{Name: "Transportes Sur SA"},
		Course:  domain.Course{Name: "Conducción Defensiva"},
		Students: []domain.ConvertedStudent{
			{FirstName: "Alumno 1", LastName: "Transportes Sur SA", Email: "alumno1@30-1.vmp.temp", TemporaryPassword: "aB3dE5gH7jK9"},
			{FirstName: "Alumno 2", LastName: "Transportes Sur SA", Email: "alumno2@30-1.vmp.temp", TemporaryPassword: "Zx2Cv4Bn6Mq8"},
		},
	}
}

func TestAccountMessages(t *testing.T) {
	t.Run("Password reset carries the link", func(t *testing.T) {
		m := PasswordResetMessage(&domain.User{FirstName: "Ana", Email: "ana@sur.test"}, "https://vmp.test/reset-password/abc")
		assert.Equal(t, "ana@sur.test", m.To)
		assert.Equal(t, "Recuperación de contraseña - VMP - EDTECH", m.Subject)
		assert.Contains(t, m.Text, "https://vmp.test/reset-password/abc")
		assert.Contains(t, m.Text, "Hola Ana")
	})

	t.Run("Welcome goes to the quote contact with every access", func(t *testing.T) {
		m := CompanyWelcomeMessage(sampleConversion())
		assert.Equal(t, "ana@sur.test", m.To)
		assert.Equal(t, "Bienvenidos a VMP - EDTECH - Transportes Sur SA", m.Subject)
		assert.Contains(t, m.Text, "Inscribimos 2 alumnos en el curso Conducción Defensiva")
		assert.Contains(t, m.Text, "alumno1@30-1.vmp.temp / aB3dE5gH7jK9")
		assert.Contains(t, m.Text, "alumno2@30-1.vmp.temp / Zx2Cv4Bn6Mq8")
	})
}

func TestSendGridNotifier(t *testing.T) {
	var (
		mu       sync.Mutex
		subjects []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Personalizations []struct {
				Subject string `json:"subject"`
			} `json:"personalizations"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		mu.Lock()
		subjects = append(subjects, payload.Personalizations[0].Subject)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewSendGrid("sg-key", "no-reply@vmp.test", "ventas@vmp.test", logger.NewNop()).WithHost(srv.URL)
	require.NoError(t, n.NotifyQuote(context.Background(), sampleQuote()))
	assert.Len(t, subjects, 2)

	user := &domain.User{FirstName: "Ana", Email: "ana@sur.test"}
	course := &domain.Course{Name: "Manejo defensivo"}
	cred := &domain.Credential{Number: "VMP-2026-00001", VerifyURL: "https://vmp.test/verificar/VMP-2026-00001"}
	require.NoError(t, n.NotifyCredential(context.Background(), user, course, cred))
	assert.Equal(t, "Tu Credencial VMP - EDTECH - Manejo defensivo", subjects[2])

	require.NoError(t, n.NotifyPasswordReset(context.Background(), user, "https://vmp.test/reset-password/abc"))
	require.NoError(t, n.NotifyCompanyWelcome(context.Background(), sampleConversion()))
	require.Len(t, subjects, 5)
	assert.Equal(t, "Recuperación de contraseña - VMP - EDTECH", subjects[3])
	assert.Equal(t, "Bienvenidos a VMP - EDTECH - Transportes Sur SA", subjects[4])
}

func TestLogNotifierHidesPasswords(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier("ventas@vmp.test", &logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	require.NoError(t, n.NotifyCompanyWelcome(context.Background(), sampleConversion()))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "ana@sur.test", entry.ContextMap()["to"])
	assert.EqualValues(t, 2, entry.ContextMap()["students"])
	for _, v := range entry.ContextMap() {
		if s, ok := v.(string); ok {
			assert.NotContains(t, s, "aB3dE5gH7jK9")
		}
	}
}

func TestSendGridNotifierReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewSendGrid("bad", "no-reply@vmp.test", "", logger.NewNop()).WithHost(srv.URL)
	assert.Error(t, n.NotifyQuote(context.Background(), sampleQuote()))
}
