package mail

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/holainformatica/soporte-backend/internal/config"
	"github.com/holainformatica/soporte-backend/internal/domain"
)

// Mailer sends ticket notifications. Each recipient is an independent
// attempt; callers collect per-recipient failures without aborting the batch.
type Mailer interface {
	SendAsignacion(to string, operarioNombre string, ticket *domain.Ticket, empresaNombre string) error
}

// SMTPMailer delivers mail over SMTP using gomail.
type SMTPMailer struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
}

// NewSMTPMailer builds the mailer from configuration.
func NewSMTPMailer(cfg config.SMTPConfig, frontendURL string) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPMailer{dialer: dialer, from: cfg.From, frontendURL: frontendURL}
}

var prioridadColors = map[domain.Prioridad]string{
	domain.PrioridadUrgente: "#dc2626",
	domain.PrioridadAlta:    "#d97706",
	domain.PrioridadMedia:   "#2563eb",
	domain.PrioridadBaja:    "#059669",
}

// SendAsignacion notifies an operario that a ticket was assigned to them.
func (m *SMTPMailer) SendAsignacion(to string, operarioNombre string, ticket *domain.Ticket, empresaNombre string) error {
	if to == "" {
		return nil
	}

	color, ok := prioridadColors[ticket.Prioridad]
	if !ok {
		color = "#64748b"
	}
	descripcion := ""
	if ticket.Descripcion != nil {
		descripcion = *ticket.Descripcion
	}
	if empresaNombre == "" {
		empresaNombre = "—"
	}

	htmlBody := fmt.Sprintf(asignacionHTML,
		operarioNombre,
		ticket.Numero,
		ticket.Asunto,
		empresaNombre,
		color,
		ticket.Prioridad,
		ticket.Estado,
		ticket.CreatedAt.Format("02/01/2006"),
		descripcion,
		m.frontendURL+"/tickets",
		ticket.Numero,
		time.Now().Year(),
	)
	plainBody := fmt.Sprintf(
		"Hola, %s\n\nSe te ha asignado el ticket #%d: %s\nEmpresa: %s\nPrioridad: %s\nEstado: %s\n\n%s/tickets\n",
		operarioNombre, ticket.Numero, ticket.Asunto, empresaNombre, ticket.Prioridad, ticket.Estado, m.frontendURL,
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Ticket #%d asignado: %s", ticket.Numero, ticket.Asunto))
	msg.SetBody("text/plain", plainBody)
	msg.AddAlternative("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send asignacion email: %w", err)
	}
	return nil
}

const asignacionHTML = `<!DOCTYPE html>
<html lang="es">
<body style="margin:0;padding:0;background:#f4f4f4;font-family:Arial,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background:#f4f4f4;padding:32px 0;">
    <tr><td align="center">
      <table width="540" cellpadding="0" cellspacing="0" style="background:#ffffff;border:1px solid #e0e0e0;">
        <tr>
          <td style="background:#0047b3;padding:24px 32px;">
            <p style="margin:0 0 4px;color:#a8c4f0;font-size:11px;text-transform:uppercase;letter-spacing:1px;">Sistema de Tickets</p>
            <p style="margin:0;color:#ffffff;font-size:22px;font-weight:bold;">Hola Informatica</p>
          </td>
        </tr>
        <tr>
          <td style="padding:32px;">
            <p style="margin:0 0 6px;color:#333333;font-size:15px;">Hola, <strong>%s</strong></p>
            <p style="margin:0 0 24px;color:#555555;font-size:14px;line-height:1.6;">Se te ha asignado el ticket <strong>#%d</strong>. A continuacion tienes los detalles.</p>
            <table width="100%%" cellpadding="0" cellspacing="0" style="margin-bottom:20px;">
              <tr>
                <td style="background:#f0f4ff;border-left:3px solid #0047b3;padding:14px 16px;">
                  <p style="margin:0 0 3px;color:#666666;font-size:11px;text-transform:uppercase;">Asunto</p>
                  <p style="margin:0;color:#111111;font-size:16px;font-weight:bold;">%s</p>
                </td>
              </tr>
            </table>
            <table width="100%%" cellpadding="0" cellspacing="0" style="border:1px solid #e0e0e0;margin-bottom:24px;">
              <tr>
                <td width="50%%" style="padding:12px 16px;border-bottom:1px solid #e0e0e0;border-right:1px solid #e0e0e0;">
                  <p style="margin:0 0 3px;color:#888888;font-size:11px;text-transform:uppercase;">Empresa</p>
                  <p style="margin:0;color:#222222;font-size:14px;font-weight:bold;">%s</p>
                </td>
                <td width="50%%" style="padding:12px 16px;border-bottom:1px solid #e0e0e0;">
                  <p style="margin:0 0 3px;color:#888888;font-size:11px;text-transform:uppercase;">Prioridad</p>
                  <p style="margin:0;color:#ffffff;font-size:13px;font-weight:bold;display:inline-block;background:%s;padding:2px 10px;">%s</p>
                </td>
              </tr>
              <tr>
                <td width="50%%" style="padding:12px 16px;border-right:1px solid #e0e0e0;">
                  <p style="margin:0 0 3px;color:#888888;font-size:11px;text-transform:uppercase;">Estado</p>
                  <p style="margin:0;color:#222222;font-size:14px;">%s</p>
                </td>
                <td width="50%%" style="padding:12px 16px;">
                  <p style="margin:0 0 3px;color:#888888;font-size:11px;text-transform:uppercase;">Fecha</p>
                  <p style="margin:0;color:#222222;font-size:14px;">%s</p>
                </td>
              </tr>
            </table>
            <table width="100%%" cellpadding="0" cellspacing="0" style="margin-bottom:24px;">
              <tr>
                <td style="background:#fafafa;border:1px solid #e0e0e0;padding:14px 16px;">
                  <p style="margin:0 0 4px;color:#888888;font-size:11px;text-transform:uppercase;">Descripcion</p>
                  <p style="margin:0;color:#444444;font-size:14px;line-height:1.6;">%s</p>
                </td>
              </tr>
            </table>
            <table width="100%%" cellpadding="0" cellspacing="0">
              <tr>
                <td align="center" style="padding:8px 0;">
                  <a href="%s" style="display:inline-block;background:#0047b3;color:#ffffff;text-decoration:none;padding:13px 36px;font-size:14px;font-weight:bold;">Ver ticket #%d</a>
                </td>
              </tr>
            </table>
          </td>
        </tr>
        <tr>
          <td style="background:#f4f4f4;border-top:1px solid #e0e0e0;padding:16px 32px;">
            <p style="margin:0;color:#999999;font-size:12px;text-align:center;line-height:1.6;">
              Este correo se ha generado automaticamente. No respondas a este mensaje.<br>
              &copy; %d Hola Informatica
            </p>
          </td>
        </tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`
