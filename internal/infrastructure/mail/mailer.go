package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	gomail "github.com/wneessen/go-mail"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/ports"
)

// sender is the part of *gomail.Client the mailer needs.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Mailer sends lead emails over SMTP. With no SMTP host configured it is
// disabled and every send is a no-op.
type Mailer struct {
	client sender
	from   string
	admin  string
	author string
	loc    *time.Location
	logger *slog.Logger
}

var _ ports.Mailer = (*Mailer)(nil)

// NewMailer builds an SMTP-backed mailer.
func NewMailer(cfg config.MailConfig, author string, loc *time.Location, logger *slog.Logger) (*Mailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	m := &Mailer{
		from:   cfg.From,
		admin:  cfg.AdminAddress,
		author: author,
		loc:    loc,
		logger: logger.With("component", "mail"),
	}
	if !cfg.Enabled() {
		m.logger.Info("SMTP not configured, email disabled")
		return m, nil
	}
	if m.from == "" {
		m.from = cfg.Username
	}
	if m.admin == "" {
		m.admin = m.from
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	switch {
	case cfg.Port == 465:
		opts = append(opts, gomail.WithSSL())
	case cfg.TLS:
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.NoTLS))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	m.client = client
	return m, nil
}

// Enabled reports whether mail is actually sent.
func (m *Mailer) Enabled() bool {
	return m != nil && m.client != nil
}

// SendContactConfirmation thanks the visitor. Leads without email are skipped.
func (m *Mailer) SendContactConfirmation(ctx context.Context, lead domain.Lead) error {
	if !m.Enabled() || lead.Email == "" {
		return nil
	}
	body, err := render(confirmationTmpl, m.view(lead))
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Aloqa uchun rahmat - %s", m.author)
	if err := m.deliver(ctx, m.author, lead.Email, subject, body); err != nil {
		return fmt.Errorf("send confirmation to lead %d: %w", lead.ID, err)
	}
	m.logger.Info("confirmation email sent", "lead_id", lead.ID)
	return nil
}

// SendAdminNotification forwards the lead to the site owner.
func (m *Mailer) SendAdminNotification(ctx context.Context, lead domain.Lead) error {
	if !m.Enabled() {
		return nil
	}
	body, err := render(adminTmpl, m.view(lead))
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Yangi Lead: %s (#%d)", lead.Name, lead.ID)
	if err := m.deliver(ctx, "Website Contact Form", m.admin, subject, body); err != nil {
		return fmt.Errorf("send admin notification for lead %d: %w", lead.ID, err)
	}
	m.logger.Info("admin notification sent", "lead_id", lead.ID)
	return nil
}

func (m *Mailer) deliver(ctx context.Context, fromName, to, subject, htmlBody string) error {
	msg, err := buildMessage(fromName, m.from, to, subject, htmlBody)
	if err != nil {
		return err
	}
	return m.client.DialAndSendWithContext(ctx, msg)
}

func buildMessage(fromName, from, to, subject, htmlBody string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(fromName, from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)

	text, err := PlainText(htmlBody)
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(gomail.TypeTextPlain, text)
	msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody)
	return msg, nil
}

type leadView struct {
	domain.Lead
	Author    string
	Received  string
	Paragraph []string
}

func (m *Mailer) view(lead domain.Lead) leadView {
	return leadView{
		Lead:      lead,
		Author:    m.author,
		Received:  lead.CreatedAt.In(m.loc).Format("02.01.2006 15:04"),
		Paragraph: strings.Split(lead.Message, "\n"),
	}
}

func render(tmpl *template.Template, data leadView) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// PlainText derives the text/plain alternative from an HTML body, one
// line per heading, paragraph or list item.
func PlainText(htmlBody string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return "", fmt.Errorf("parse email html: %w", err)
	}
	var lines []string
	doc.Find("h1, h3, p, li, .field").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "li" {
			text = "- " + text
		}
		lines = append(lines, text)
	})
	if len(lines) == 0 {
		return "", errors.New("email html has no text")
	}
	return strings.Join(lines, "\n"), nil
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Aloqa uchun rahmat</title></head>
<body>
<div class="header">
<h1>Assalomu aleykum, {{.Name}}!</h1>
<p>Bizga murojaat qilganingiz uchun rahmat</p>
</div>
<div class="content">
<p>Sizning so'rovingizni oldik va 24 soat ichida javob beramiz.</p>
<div class="highlight">
<h3>Sizning ma'lumotlaringiz:</h3>
<p><strong>Ism:</strong> {{.Name}}</p>
{{if .Email}}<p><strong>Email:</strong> {{.Email}}</p>{{end}}
{{if .Phone}}<p><strong>Telefon:</strong> {{.Phone}}</p>{{end}}
{{if .ServiceType}}<p><strong>Xizmat:</strong> {{.ServiceType}}</p>{{end}}
{{if .Budget}}<p><strong>Byudjet:</strong> {{.Budget}}</p>{{end}}
<p><strong>So'rov raqami:</strong> #{{.ID}}</p>
</div>
<p>Bu vaqt ichida quyidagilarni qilishingiz mumkin:</p>
<ul>
<li><a href="https://t.me/akramfarmonov">Telegram orqali bevosita yozing</a></li>
<li><a href="https://akramfarmonov.uz/portfolio">Portfolio va ishlarimni ko'ring</a></li>
<li><a href="https://akramfarmonov.uz/blog">Blog maqolalarini o'qing</a></li>
</ul>
</div>
<div class="footer"><p>{{.Author}} - Web Developer &amp; Business Automation Expert</p></div>
</body>
</html>`))

var adminTmpl = template.Must(template.New("admin").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Yangi Lead - {{.Name}}</title></head>
<body>
<div class="header"><h1>Yangi Lead!</h1><p>Lead ID: #{{.ID}}</p></div>
<div class="content">
<div class="field priority"><strong>Vaqt:</strong> {{.Received}}</div>
<div class="field"><strong>Ism:</strong> {{.Name}}</div>
{{if .Email}}<div class="field"><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></div>{{end}}
{{if .Phone}}<div class="field"><strong>Telefon:</strong> <a href="tel:{{.Phone}}">{{.Phone}}</a></div>{{end}}
{{if .BusinessType}}<div class="field"><strong>Biznes turi:</strong> {{.BusinessType}}</div>{{end}}
{{if .ServiceType}}<div class="field"><strong>Xizmat:</strong> {{.ServiceType}}</div>{{end}}
{{if .Budget}}<div class="field"><strong>Byudjet:</strong> {{.Budget}}</div>{{end}}
{{if .Timeline}}<div class="field"><strong>Muddat:</strong> {{.Timeline}}</div>{{end}}
{{if .Message}}<div class="field"><strong>Xabar:</strong><br>{{range $i, $line := .Paragraph}}{{if $i}}<br>{{end}}{{$line}}{{end}}</div>{{end}}
<p><strong>Keyingi qadamlar:</strong></p>
<ol>
<li>24 soat ichida javob bering</li>
<li>Telegram orqali bog'laning</li>
<li>Batafsil ma'lumot yig'ing</li>
<li>Taklif tayyorlang</li>
</ol>
</div>
</body>
</html>`))
