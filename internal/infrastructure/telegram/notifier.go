package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/ports"
)

const timeLayout = "02.01.2006 15:04"

// Notifier sends operator notifications to a Telegram chat via bot API.
// A notifier built from an incomplete config is disabled and drops messages.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string
	siteURL string
	loc     *time.Location
	logger  *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier authenticates the bot (getMe) when the config is complete.
func NewNotifier(cfg config.TelegramConfig, loc *time.Location, logger *slog.Logger) (*Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	n := &Notifier{
		siteURL: strings.TrimRight(cfg.SiteURL, "/"),
		loc:     loc,
		logger:  logger.With("component", "telegram"),
	}
	if !cfg.Enabled() {
		n.logger.Info("telegram credentials not configured, notifications disabled")
		return n, nil
	}

	if id, err := strconv.ParseInt(cfg.ChatID, 10, 64); err == nil {
		n.chatID = id
	} else if strings.HasPrefix(cfg.ChatID, "@") {
		n.channel = cfg.ChatID
	} else {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", cfg.ChatID, err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	n.bot = bot
	n.logger.Info("telegram bot authorised", "username", bot.Self.UserName)
	return n, nil
}

// Enabled reports whether messages are actually sent.
func (n *Notifier) Enabled() bool {
	return n != nil && n.bot != nil
}

// NotifyLead announces a new contact-form submission.
func (n *Notifier) NotifyLead(ctx context.Context, lead domain.Lead) error {
	if err := n.send(ctx, FormatLead(lead, n.loc), true); err != nil {
		return fmt.Errorf("notify lead %d: %w", lead.ID, err)
	}
	return nil
}

// NotifyArticle announces a freshly published article with a link to it.
func (n *Notifier) NotifyArticle(ctx context.Context, article domain.Article) error {
	if err := n.send(ctx, FormatArticle(article, n.siteURL), false); err != nil {
		return fmt.Errorf("notify article %s: %w", article.Slug, err)
	}
	return nil
}

// NotifySystem sends a generic operator message.
func (n *Notifier) NotifySystem(ctx context.Context, title, message string) error {
	if err := n.send(ctx, FormatSystem(title, message), true); err != nil {
		return fmt.Errorf("notify system: %w", err)
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string, disablePreview bool) error {
	if !n.Enabled() {
		n.logger.Debug("notification dropped, telegram disabled")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg tgbotapi.MessageConfig
	if n.channel != "" {
		msg = tgbotapi.NewMessageToChannel(n.channel, text)
	} else {
		msg = tgbotapi.NewMessage(n.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = disablePreview

	if _, err := n.bot.Send(msg); err != nil {
		return err
	}
	return nil
}

// FormatLead renders the HTML lead card.
func FormatLead(lead domain.Lead, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("🔔 <b>Yangi Lead!</b>\n\n")
	fmt.Fprintf(&b, "👤 <b>Ism:</b> %s\n", html.EscapeString(lead.Name))

	optional := []struct{ label, value string }{
		{"📧 <b>Email:</b>", lead.Email},
		{"📞 <b>Telefon:</b>", lead.Phone},
		{"🏢 <b>Biznes turi:</b>", lead.BusinessType},
		{"⚙️ <b>Xizmat turi:</b>", lead.ServiceType},
		{"💰 <b>Byudjet:</b>", lead.Budget},
		{"⏰ <b>Muddati:</b>", lead.Timeline},
	}
	for _, f := range optional {
		if f.value != "" {
			fmt.Fprintf(&b, "%s %s\n", f.label, html.EscapeString(f.value))
		}
	}
	if lead.Message != "" {
		fmt.Fprintf(&b, "💬 <b>Xabar:</b>\n%s\n", html.EscapeString(lead.Message))
	}

	fmt.Fprintf(&b, "\n📅 <b>Vaqt:</b> %s", lead.CreatedAt.In(loc).Format(timeLayout))
	fmt.Fprintf(&b, "\n🔗 <b>Manba:</b> %s", html.EscapeString(lead.Source))
	fmt.Fprintf(&b, "\n🆔 <b>Lead ID:</b> #%d", lead.ID)
	b.WriteString("\n\n<i>Admin panelda batafsil ma'lumotni ko'rishingiz mumkin.</i>")
	return b.String()
}

// FormatArticle renders the new-post announcement.
func FormatArticle(article domain.Article, siteURL string) string {
	return fmt.Sprintf("📝 <b>Yangi Blog Maqolasi!</b>\n\n<b>Sarlavha:</b> %s\n<b>Kategoriya:</b> %s\n\n<a href=\"%s/blog/%s\">Maqolani o'qish</a>",
		html.EscapeString(article.Title), html.EscapeString(article.Category), siteURL, article.Slug)
}

// FormatSystem renders an operator message.
func FormatSystem(title, message string) string {
	return fmt.Sprintf("🤖 <b>%s</b>\n\n%s", html.EscapeString(title), html.EscapeString(message))
}
