package composer

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/topics"
)

type stubGenerator struct {
	text    string
	err     error
	prompts []string
	wait    bool
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.text, s.err
}

var slugShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Telegram Bot Yaratish: To'liq Qo'llanma": "telegram-bot-yaratish-toliq-qollanma",
		"React.js bilan Zamonaviy Web Sayt":        "reactjs-bilan-zamonaviy-web-sayt",
		"  --Şahar   Öğrenci-- ":                   "shahar-oghrenci",
		"MVP (Minimum Viable Product) yaratish":    "mvp-minimum-viable-product-yaratish",
	}
	for title, want := range cases {
		got := Slugify(title)
		assert.Equal(t, want, got, title)
		assert.Regexp(t, slugShape, got)
		assert.Equal(t, got, Slugify(title), "slug must be deterministic")
	}
}

func TestSlugifyFallsBackToDefault(t *testing.T) {
	t.Parallel()

	for _, title := range []string{"", "   ", "!!! ??? ---", "Привет мир", "'''"} {
		assert.Equal(t, DefaultSlug, Slugify(title), title)
	}
}

func TestReadTimeIsMonotonic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ReadTime(""))
	assert.Equal(t, 1, ReadTime("bir"))
	assert.Equal(t, 1, ReadTime(strings.Repeat("so'z ", 200)))
	assert.Equal(t, 2, ReadTime(strings.Repeat("so'z ", 201)))

	body := "boshlanish"
	prev := ReadTime(body)
	for i := 0; i < 50; i++ {
		body += strings.Repeat(" qo'shimcha", 37)
		next := ReadTime(body)
		assert.GreaterOrEqual(t, next, prev)
		prev = next
	}
}

func TestParseDistinguishesMissingAndEmpty(t *testing.T) {
	t.Parallel()

	text := "preamble\n---title---\n  Sarlavha  \n---EXCERPT---\n---CONTENT---\nBirinchi qism\n\n---\nIkkinchi qism\n---TITLE---\nikkinchi sarlavha"
	sections := Parse(text)

	assert.Equal(t, Section{Text: "Sarlavha", Present: true}, sections.Title)
	assert.Equal(t, Section{Text: "", Present: true}, sections.Excerpt)
	assert.Equal(t, Section{}, sections.SEOTitle)
	assert.Equal(t, "Birinchi qism\n\n---\nIkkinchi qism", sections.Content.Text)
	assert.Equal(t, []string{LabelExcerpt, LabelSEOTitle, LabelSEODescription}, sections.Missing())
}

func TestParseKeepsSEOTitleSeparateFromTitle(t *testing.T) {
	t.Parallel()

	sections := Parse("---SEO_TITLE---\nSEO sarlavha\n---TITLE---\nAsosiy\n---CONTENT---\nmatn")
	assert.Equal(t, "Asosiy", sections.Title.Text)
	assert.Equal(t, "SEO sarlavha", sections.SEOTitle.Text)
}

func TestComposeContentOnlyAppliesFallbacks(t *testing.T) {
	t.Parallel()

	content := strings.Repeat("abcdefghij", 30)
	gen := &stubGenerator{text: "---CONTENT---\n" + content}
	c := New(gen, Options{})

	article, err := c.Compose(context.Background(), topics.NewIdea("CRM va bot bog'lash", topics.TelegramBots))
	require.NoError(t, err)

	wantExcerpt := content[:200] + "..."
	assert.Equal(t, DefaultTitle, article.Title)
	assert.Equal(t, wantExcerpt, article.Excerpt)
	assert.Equal(t, DefaultTitle, article.SEOTitle)
	assert.Equal(t, wantExcerpt[:160], article.SEODescription)
	assert.Equal(t, "yangi-blog-maqolasi", article.Slug)
	assert.Equal(t, 1, article.ReadTime)
	assert.False(t, article.Published)
	assert.Nil(t, article.PublishedAt)
	assert.Equal(t, domain.DefaultAuthor, article.Author)
	assert.Equal(t, string(topics.TelegramBots), article.Category)
}

func TestComposeFullOutput(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{text: strings.Join([]string{
		"---TITLE---", "Telegram Bot Yaratish",
		"---EXCERPT---", "Qisqa tavsif",
		"---SEO_TITLE---", "Bot yaratish qo'llanmasi",
		"---SEO_DESCRIPTION---", "Meta tavsif",
		"---CONTENT---", "# Kirish\nMatn",
	}, "\n")}
	c := New(gen, Options{Author: "Test Muallif"})
	idea := topics.NewIdea("Telegram bot yaratish: 0 dan boshlab", topics.TelegramBots)

	article, err := c.Compose(context.Background(), idea)
	require.NoError(t, err)

	assert.Equal(t, "Telegram Bot Yaratish", article.Title)
	assert.Equal(t, "telegram-bot-yaratish", article.Slug)
	assert.Equal(t, "Qisqa tavsif", article.Excerpt)
	assert.Equal(t, "Bot yaratish qo'llanmasi", article.SEOTitle)
	assert.Equal(t, "Meta tavsif", article.SEODescription)
	assert.Equal(t, idea.Tags, article.Tags)
	assert.Equal(t, "Test Muallif", article.Author)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "MAVZU: Telegram bot yaratish: 0 dan boshlab")
	assert.Contains(t, prompt, "QIYINLIK DARAJASI: boshlang'ich")
	assert.Contains(t, prompt, "MAQSADLI AUDITORIYA: "+topics.TelegramBots.Audience())
	assert.Contains(t, prompt, "---SEO_DESCRIPTION---")
	assert.Contains(t, prompt, "Test Muallif haqida")
}

func TestComposeErrors(t *testing.T) {
	t.Parallel()

	idea := topics.NewIdea("AI tools biznes uchun", topics.AIChatbots)
	upstream := errors.New("quota exceeded")

	cases := []struct {
		name string
		gen  *stubGenerator
		want error
	}{
		{name: "upstream failure", gen: &stubGenerator{err: upstream}, want: upstream},
		{name: "blank response", gen: &stubGenerator{text: "  \n "}, want: domain.ErrEmptyGeneration},
		{name: "no content", gen: &stubGenerator{text: "---TITLE---\nFaqat sarlavha"}, want: domain.ErrMissingContent},
		{name: "empty content", gen: &stubGenerator{text: "---TITLE---\nSarlavha\n---CONTENT---\n   "}, want: domain.ErrMissingContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.gen, Options{}).Compose(context.Background(), idea)
			require.Error(t, err)

			var genErr *domain.GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, idea.Title, genErr.Topic)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestComposeTimesOut(t *testing.T) {
	t.Parallel()

	c := New(&stubGenerator{wait: true}, Options{Timeout: 10 * time.Millisecond})
	_, err := c.Compose(context.Background(), topics.Samples()[0])
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestComposeRandomUsesPicker(t *testing.T) {
	t.Parallel()

	ideas := topics.All()
	picker := topics.NewPicker(ideas, func(int) int { return 3 })
	gen := &stubGenerator{text: "---CONTENT---\nmatn"}

	article, err := New(gen, Options{Picker: picker}).ComposeRandom(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(ideas[3].Category), article.Category)
	assert.Contains(t, gen.prompts[0], ideas[3].Title)

	_, err = New(gen, Options{}).ComposeRandom(context.Background())
	var genErr *domain.GenerationError
	assert.ErrorAs(t, err, &genErr)
}
