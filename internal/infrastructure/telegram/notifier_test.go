package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/domain"
)

type fakeBotAPI struct {
	mu   sync.Mutex
	sent []map[string]string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"CMS","username":"cms_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.sent = append(f.sent, map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		})
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":-100,"type":"group"}}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestNotifier(t *testing.T) (*Notifier, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	n, err := NewNotifier(config.TelegramConfig{
		BotToken: "123:abc",
		ChatID:   "-100",
		SiteURL:  "https://akramfarmonov.uz/",
		Endpoint: srv.URL + "/bot%s/%s",
	}, time.FixedZone("UZT", 5*3600), nil)
	require.NoError(t, err)
	require.True(t, n.Enabled())
	return n, api
}

func TestNotifierSendsHTMLMessages(t *testing.T) {
	t.Parallel()

	n, api := newTestNotifier(t)
	ctx := context.Background()

	require.NoError(t, n.NotifyArticle(ctx, domain.Article{Title: "Go & Telegram", Slug: "go-telegram", Category: "Telegram Botlar"}))
	require.NoError(t, n.NotifySystem(ctx, "Scheduler", "3 ta maqola yaratildi"))

	require.Len(t, api.sent, 2)
	assert.Equal(t, "-100", api.sent[0]["chat_id"])
	assert.Equal(t, "HTML", api.sent[0]["parse_mode"])
	assert.Contains(t, api.sent[0]["text"], "Go &amp; Telegram")
	assert.Contains(t, api.sent[0]["text"], `href="https://akramfarmonov.uz/blog/go-telegram"`)
	assert.Equal(t, "🤖 <b>Scheduler</b>\n\n3 ta maqola yaratildi", api.sent[1]["text"])
}

func TestDisabledNotifierDropsMessages(t *testing.T) {
	t.Parallel()

	n, err := NewNotifier(config.TelegramConfig{BotToken: "only-token"}, nil, nil)
	require.NoError(t, err)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.NotifyLead(context.Background(), domain.Lead{ID: 1, Name: "Aziz"}))
}

func TestInvalidChatID(t *testing.T) {
	t.Parallel()

	_, err := NewNotifier(config.TelegramConfig{BotToken: "t", ChatID: "not-a-chat"}, nil, nil)
	assert.Error(t, err)
}

func TestFormatLead(t *testing.T) {
	t.Parallel()

	lead := domain.Lead{
		ID:          7,
		Name:        "Dilnoza <admin>",
		Phone:       "+998901234567",
		ServiceType: "Telegram bot",
		Message:     "Salom",
		Source:      domain.SourceContactForm,
		CreatedAt:   time.Date(2025, time.March, 10, 5, 30, 0, 0, time.UTC),
	}
	text := FormatLead(lead, time.FixedZone("UZT", 5*3600))

	assert.Contains(t, text, "👤 <b>Ism:</b> Dilnoza &lt;admin&gt;")
	assert.Contains(t, text, "📞 <b>Telefon:</b> +998901234567")
	assert.Contains(t, text, "⚙️ <b>Xizmat turi:</b> Telegram bot")
	assert.NotContains(t, text, "Email")
	assert.NotContains(t, text, "Byudjet")
	assert.Contains(t, text, "📅 <b>Vaqt:</b> 10.03.2025 10:30")
	assert.Contains(t, text, "🆔 <b>Lead ID:</b> #7")
}
