package email

import (
	"bytes"
	"html/template"
	"time"
)

// Message es un correo listo para Sender.SendMail.
type Message struct {
	Subject string
	HTML    string
}

var (
	otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family:Arial,sans-serif">
<h2>Verify your email</h2>
<p>Your verification code is:</p>
<p style="font-size:28px;letter-spacing:6px"><strong>{{.Code}}</strong></p>
<p>The code expires in {{.Minutes}} minutes. If you did not request it, ignore this email.</p>
</div>`))

	welcomeTemplate = template.Must(template.New("welcome").Parse(`<div style="font-family:Arial,sans-serif">
<h2>Welcome{{if .Name}}, {{.Name}}{{end}}!</h2>
<p>Your account is ready. Start exploring jobs from your dashboard.</p>
<p><a href="{{.DashboardLink}}">Go to dashboard</a></p>
</div>`))

	resetTemplate = template.Must(template.New("reset").Parse(`<div style="font-family:Arial,sans-serif">
<h2>Reset your password</h2>
<p>We received a request to reset your password. The link is valid for {{.Minutes}} minutes and can be used once.</p>
<p><a href="{{.ResetLink}}">Reset password</a></p>
<p>If you did not request a reset, you can ignore this email.</p>
</div>`))
)

// OTPVerification arma el correo con el codigo de verificacion.
func OTPVerification(code string, ttl time.Duration) (Message, error) {
	html, err := render(otpTemplate, struct {
		Code    string
		Minutes int
	}{code, minutes(ttl)})
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: "Verify your email address", HTML: html}, nil
}

func Welcome(name, dashboardLink string) (Message, error) {
	html, err := render(welcomeTemplate, struct {
		Name          string
		DashboardLink string
	}{name, dashboardLink})
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: "Welcome to ZeekNet", HTML: html}, nil
}

func PasswordReset(resetLink string, ttl time.Duration) (Message, error) {
	html, err := render(resetTemplate, struct {
		ResetLink string
		Minutes   int
	}{resetLink, minutes(ttl)})
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: "Reset your password", HTML: html}, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func minutes(d time.Duration) int {
	m := int(d / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}
