package sender

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/magabrotheeeer/gym-console/internal/lib/whatsapp"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

var md = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var bodies = map[models.ReminderKind]*template.Template{
	models.ReminderExpiring: template.Must(template.New("expiring").Parse(
		`Hello **{{.FullName}}**,

{{.Text}}

Your current plan: *{{.Plan}}*.

See you at the gym,
{{.Gym}} Team
`)),
	models.ReminderExpired: template.Must(template.New("expired").Parse(
		`Hello **{{.FullName}}**,

{{.Text}}

Renew your *{{.Plan}}* plan at the front desk to get back on track.

{{.Gym}} Team
`)),
}

var subjects = map[models.ReminderKind]string{
	models.ReminderExpiring: "Your %s membership is expiring soon",
	models.ReminderExpired:  "Your %s membership has expired",
}

// Email письмо напоминания.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Renderer собирает письма из Markdown-шаблонов.
type Renderer struct {
	gym string
}

// NewRenderer создает новый экземпляр Renderer.
func NewRenderer(gym string) *Renderer {
	return &Renderer{gym: gym}
}

// Render возвращает письмо для задания.
func (r *Renderer) Render(job models.ReminderJob) (Email, error) {
	const op = "sender.Render"
	tmpl, ok := bodies[job.Kind]
	if !ok {
		return Email{}, fmt.Errorf("%s: unknown reminder kind %q", op, job.Kind)
	}

	plan := job.Plan
	if plan == "" {
		plan = "gym"
	}
	var src bytes.Buffer
	err := tmpl.Execute(&src, map[string]any{
		"FullName": job.FullName,
		"Plan":     plan,
		"Gym":      r.gym,
		"Text":     whatsapp.Message(r.gym, job.DaysLeft),
	})
	if err != nil {
		return Email{}, fmt.Errorf("%s: %w", op, err)
	}

	var html bytes.Buffer
	if err := md.Convert(src.Bytes(), &html); err != nil {
		return Email{}, fmt.Errorf("%s: %w", op, err)
	}
	return Email{
		To:      job.Email,
		Subject: fmt.Sprintf(subjects[job.Kind], plan),
		HTML:    html.String(),
	}, nil
}
