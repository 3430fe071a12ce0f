package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/pkg/logger"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	appName         = "VMP - EDTECH"
	defaultHost     = "https://api.sendgrid.com"
	sendEndpoint    = "/v3/mail/send"
	quoteClientSubj = "Recibimos tu solicitud de cotización - " + appName
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type SendGridNotifier struct {
	key     string
	host    string
	from    *sgmail.Email
	salesTo string
	log     *logger.Logger
}

var _ domain.Notifier = (*SendGridNotifier)(nil)

// NewSendGrid builds a notifier that posts to the SendGrid v3 API.
// salesTo receives a copy of every new quote.
func NewSendGrid(key, fromEmail, salesTo string, log *logger.Logger) *SendGridNotifier {
	return &SendGridNotifier{
		key:     key,
		host:    defaultHost,
		from:    sgmail.NewEmail(appName, fromEmail),
		salesTo: salesTo,
		log:     log,
	}
}

// WithHost points the notifier at another API host.
func (n *SendGridNotifier) WithHost(host string) *SendGridNotifier {
	n.host = host
	return n
}

func (n *SendGridNotifier) NotifyQuote(ctx context.Context, quote *domain.Quote) error {
	msgs := QuoteMessages(quote, n.salesTo)
	var firstErr error
	for _, m := range msgs {
		if err := n.send(ctx, m); err != nil {
			n.log.Error("quote email failed", "to", m.To, "quote_id", quote.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (n *SendGridNotifier) NotifyCredential(ctx context.Context, user *domain.User, course *domain.Course, cred *domain.Credential) error {
	return n.send(ctx, CredentialMessage(user, course, cred))
}

func (n *SendGridNotifier) NotifyPasswordReset(ctx context.Context, user *domain.User, resetURL string) error {
	return n.send(ctx, PasswordResetMessage(user, resetURL))
}

func (n *SendGridNotifier) NotifyCompanyWelcome(ctx context.Context, conv *domain.QuoteConversion) error {
	return n.send(ctx, CompanyWelcomeMessage(conv))
}

func (n *SendGridNotifier) send(ctx context.Context, msg Message) error {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail("", msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(n.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}

	req := sendgrid.GetRequest(n.key, sendEndpoint, n.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogNotifier writes the emails to the log instead of sending them.
type LogNotifier struct {
	salesTo string
	log     *logger.Logger
}

var _ domain.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(salesTo string, log *logger.Logger) *LogNotifier {
	return &LogNotifier{salesTo: salesTo, log: log}
}

func (n *LogNotifier) NotifyQuote(ctx context.Context, quote *domain.Quote) error {
	for _, m := range QuoteMessages(quote, n.salesTo) {
		n.log.Info("email (not sent)", "to", m.To, "subject", m.Subject)
	}
	return nil
}

func (n *LogNotifier) NotifyCredential(ctx context.Context, user *domain.User, course *domain.Course, cred *domain.Credential) error {
	m := CredentialMessage(user, course, cred)
	n.log.Info("email (not sent)", "to", m.To, "subject", m.Subject)
	return nil
}

func (n *LogNotifier) NotifyPasswordReset(ctx context.Context, user *domain.User, resetURL string) error {
	m := PasswordResetMessage(user, resetURL)
	n.log.Info("email (not sent)", "to", m.To, "subject", m.Subject)
	return nil
}

// NotifyCompanyWelcome logs the recipient only; the body carries passwords.
func (n *LogNotifier) NotifyCompanyWelcome(ctx context.Context, conv *domain.QuoteConversion) error {
	m := CompanyWelcomeMessage(conv)
	n.log.Info("email (not sent)", "to", m.To, "subject", m.Subject, "students", len(conv.Students))
	return nil
}

// QuoteMessages builds the sales alert and the client acknowledgement for a quote.
func QuoteMessages(q *domain.Quote, salesTo string) []Message {
	summary := fmt.Sprintf("Empresa: %s\nContacto: %s <%s> %s\nCurso: %s (%s)\nConductores: %d\nTotal: $%.0f (por alumno $%.0f, descuento %d%%)",
		q.Company, q.ContactName, q.Email, q.Phone, q.Course, q.Modality, q.Quantity, q.TotalPrice, q.PricePerStudent, q.Discount)

	var msgs []Message
	if salesTo != "" {
		msgs = append(msgs, Message{
			To:      salesTo,
			Subject: fmt.Sprintf("Nueva Cotización: %s - %d conductores", q.Company, q.Quantity),
			Text:    summary,
		})
	}
	msgs = append(msgs, Message{
		To:      q.Email,
		Subject: quoteClientSubj,
		Text:    fmt.Sprintf("Hola %s,\n\nRecibimos tu solicitud. Un asesor te contactará a la brevedad.\n\n%s", q.ContactName, summary),
	})
	return msgs
}

func CredentialMessage(user *domain.User, course *domain.Course, cred *domain.Credential) Message {
	return Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Tu Credencial %s - %s", appName, course.Name),
		Text: fmt.Sprintf("Hola %s,\n\nCompletaste el curso %s. Tu credencial es %s.\nVerificala en %s",
			user.FirstName, course.Name, cred.Number, cred.VerifyURL),
	}
}

func PasswordResetMessage(user *domain.User, resetURL string) Message {
	return Message{
		To:      user.Email,
		Subject: "Recuperación de contraseña - " + appName,
		Text: fmt.Sprintf("Hola %s,\n\nRecibimos una solicitud para restablecer tu contraseña.\n"+
			"Ingresá a %s para elegir una nueva. El enlace vence en 1 hora.\n\n"+
			"Si no la solicitaste, ignorá este mensaje.", user.FirstName, resetURL),
	}
}

// CompanyWelcomeMessage lists the learner accounts created for a converted
// quote, temporary passwords included.
func CompanyWelcomeMessage(conv *domain.QuoteConversion) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,\n\nLa empresa %s ya está dada de alta en %s.\n", conv.Quote.ContactName, conv.Company.Name, appName)
	fmt.Fprintf(&b, "Inscribimos %d alumnos en el curso %s. Sus accesos son:\n\n", len(conv.Students), conv.Course.Name)
	for _, s := range conv.Students {
		fmt.Fprintf(&b, "%s %s: %s / %s\n", s.FirstName, s.LastName, s.Email, s.TemporaryPassword)
	}
	b.WriteString("\nCada alumno debe cambiar su contraseña en el primer ingreso.")
	return Message{
		To:      conv.Quote.Email,
		Subject: fmt.Sprintf("Bienvenidos a %s - %s", appName, conv.Company.Name),
		Text:    b.String(),
	}
}
