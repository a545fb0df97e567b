package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
)

// Notifier sends the portal's outbound notifications. Failures are logged and
// never block or fail the operation that triggered them.
type Notifier interface {
	SendRequestReceived(ctx context.Context, req *models.InfoRequest) error
	SendRequestStatusChanged(ctx context.Context, req *models.InfoRequest) error
	NotifyStaffNewRequest(ctx context.Context, req *models.InfoRequest) error
}

// EmailConfig represents email configuration
type EmailConfig struct {
	Host       string `json:"host"`
	Port       string `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	FromEmail  string `json:"from_email"`
	FromName   string `json:"from_name"`
	StaffEmail string `json:"staff_email"`
}

// SMTPNotifier implements Notifier over plain SMTP.
type SMTPNotifier struct {
	config    *EmailConfig
	templates map[string]*template.Template
	logger    *pkg.Logger
}

// NewSMTPNotifier creates a new SMTP notifier
func NewSMTPNotifier(config *EmailConfig, logger *pkg.Logger) *SMTPNotifier {
	n := &SMTPNotifier{
		config:    config,
		templates: make(map[string]*template.Template),
		logger:    logger,
	}
	n.loadTemplates()
	return n
}

func (n *SMTPNotifier) loadTemplates() {
	receivedTemplate := `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Solicitud de información recibida</h2>
    <p>Estimado/a {{.FullName}},</p>
    <p>Su solicitud de información pública fue recibida correctamente.</p>
    <p>Su código de seguimiento es: <strong>{{.TrackingCode}}</strong></p>
    <p>Conserve este código; lo necesitará para consultar el estado de su solicitud.
    El plazo legal de respuesta es de {{.DeadlineDays}} días.</p>
</body>
</html>`

	statusTemplate := `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Actualización de su solicitud</h2>
    <p>Estimado/a {{.FullName}},</p>
    <p>Su solicitud <strong>{{.TrackingCode}}</strong> cambió de estado: <strong>{{.Status}}</strong>.</p>
    {{if .AnswerText}}<p>{{.AnswerText}}</p>{{end}}
</body>
</html>`

	staffTemplate := `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Nueva solicitud de información</h2>
    <p>Código: <strong>{{.TrackingCode}}</strong></p>
    <p>Solicitante: {{.FullName}} ({{.Email}})</p>
    <p>{{.Body}}</p>
</body>
</html>`

	n.templates["request_received"] = template.Must(template.New("request_received").Parse(receivedTemplate))
	n.templates["status_changed"] = template.Must(template.New("status_changed").Parse(statusTemplate))
	n.templates["staff_new_request"] = template.Must(template.New("staff_new_request").Parse(staffTemplate))
}

// SendRequestReceived mails the requester their tracking code
func (n *SMTPNotifier) SendRequestReceived(ctx context.Context, req *models.InfoRequest) error {
	data := map[string]interface{}{
		"FullName":     req.FullName,
		"TrackingCode": req.TrackingCode,
		"DeadlineDays": models.ResponseDeadlineDays,
	}
	subject := fmt.Sprintf("Solicitud recibida - %s", req.TrackingCode)
	return n.send(req.Email, subject, "request_received", data)
}

// SendRequestStatusChanged mails the requester about a status transition
func (n *SMTPNotifier) SendRequestStatusChanged(ctx context.Context, req *models.InfoRequest) error {
	data := map[string]interface{}{
		"FullName":     req.FullName,
		"TrackingCode": req.TrackingCode,
		"Status":       string(req.Status),
		"AnswerText":   req.AnswerText,
	}
	subject := fmt.Sprintf("Actualización de solicitud - %s", req.TrackingCode)
	return n.send(req.Email, subject, "status_changed", data)
}

// NotifyStaffNewRequest mails the information-access unit about a new request
func (n *SMTPNotifier) NotifyStaffNewRequest(ctx context.Context, req *models.InfoRequest) error {
	if n.config.StaffEmail == "" {
		return nil
	}
	data := map[string]interface{}{
		"TrackingCode": req.TrackingCode,
		"FullName":     req.FullName,
		"Email":        req.Email,
		"Body":         req.Body,
	}
	subject := fmt.Sprintf("Nueva solicitud - %s", req.TrackingCode)
	return n.send(n.config.StaffEmail, subject, "staff_new_request", data)
}

func (n *SMTPNotifier) send(to, subject, templateName string, data map[string]interface{}) error {
	tmpl, ok := n.templates[templateName]
	if !ok {
		return pkg.ErrNotificationFailed.WithCause(fmt.Errorf("template %s not found", templateName))
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return pkg.ErrNotificationFailed.WithCause(err)
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		n.config.FromName, n.config.FromEmail, to, subject, body.String())

	addr := n.config.Host + ":" + n.config.Port
	auth := smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)

	if err := smtp.SendMail(addr, auth, n.config.FromEmail, []string{to}, []byte(msg)); err != nil {
		n.logger.Error("failed to send notification email", map[string]interface{}{
			"to":       to,
			"template": templateName,
			"error":    err.Error(),
		})
		return pkg.ErrNotificationFailed.WithCause(err)
	}

	n.logger.Info("notification email sent", map[string]interface{}{
		"to":       to,
		"template": templateName,
	})
	return nil
}
