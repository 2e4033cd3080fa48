package infra

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"cuentame/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for the account emails.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.MailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

var plantillas = template.Must(template.New("mail").Parse(`
{{define "otp"}}<p>Hola {{.Nombre}},</p>
<p>Tu codigo de verificacion de Cuenta-Me es:</p>
<h2 style="letter-spacing:4px">{{.Valor}}</h2>
<p>El codigo vence en 15 minutos.</p>{{end}}
{{define "recuperacion"}}<p>Hola {{.Nombre}},</p>
<p>Recibimos una solicitud para restablecer tu contrasena.</p>
<p><a href="{{.Valor}}">Restablecer contrasena</a></p>
<p>Si no la solicitaste, ignora este mensaje.</p>{{end}}
{{define "confirmacion"}}<p>Hola {{.Nombre}},</p>
<p>Confirma tu cuenta de administrador de Cuenta-Me:</p>
<p><a href="{{.Valor}}">Confirmar cuenta</a></p>{{end}}
`))

type datosPlantilla struct {
	Nombre string
	Valor  string
}

// EnviarOTP sends the 6-digit account verification code.
func (m *Mailer) EnviarOTP(to, nombre, otp string) error {
	return m.send(to, "Codigo de verificacion - Cuenta-Me", "otp", datosPlantilla{nombre, otp})
}

// EnviarRecuperacion sends the password reset link.
func (m *Mailer) EnviarRecuperacion(to, nombre, link string) error {
	return m.send(to, "Recupera tu contrasena - Cuenta-Me", "recuperacion", datosPlantilla{nombre, link})
}

// EnviarConfirmacion sends the administrator account confirmation link.
func (m *Mailer) EnviarConfirmacion(to, nombre, link string) error {
	return m.send(to, "Confirma tu cuenta - Cuenta-Me", "confirmacion", datosPlantilla{nombre, link})
}

func (m *Mailer) send(to, subject, plantilla string, datos datosPlantilla) error {
	var body bytes.Buffer
	if err := plantillas.ExecuteTemplate(&body, plantilla, datos); err != nil {
		return fmt.Errorf("mailer: render %s: %w", plantilla, err)
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.HTML = body.Bytes()

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
