// Package topics holds the static catalog of blog subjects the composer writes about.
package topics

import "strings"

// Category is one of the fixed blog categories.
type Category string

const (
	WebDevelopment Category = "Web Development"
	TelegramBots   Category = "Telegram Botlar"
	AIChatbots     Category = "AI va Chatbotlar"
	Automation     Category = "Biznes Avtomatlashtirish"
	Startups       Category = "Startup va Tadbirkorlik"
)

// Categories lists every category in catalog order.
var Categories = []Category{WebDevelopment, TelegramBots, AIChatbots, Automation, Startups}

// DefaultAudience is used for categories outside the catalog.
const DefaultAudience = "Umumiy auditoriya"

// Audience returns the reader group a category is written for.
func (c Category) Audience() string {
	switch c {
	case WebDevelopment:
		return "Web dasturchilar va texnologiya ishqibozlari"
	case TelegramBots:
		return "Biznes egalari va avtomatlashtirish qidiruvchilar"
	case AIChatbots:
		return "Tadbirkorlar va zamonaviy texnologiya foydalanuvchilari"
	case Automation:
		return "SMB egalari va biznes jarayonlarni yaxshilash istovchilar"
	case Startups:
		return "Yoshlar va startup asoschilari"
	default:
		return DefaultAudience
	}
}

// Known reports whether c belongs to the catalog.
func (c Category) Known() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Topics returns the subject lines filed under the category.
func (c Category) Topics() []string {
	switch c {
	case WebDevelopment:
		return []string{
			"JavaScript asoslari va amaliy loyihalar",
			"React.js bilan zamonaviy web saytlar",
			"Next.js Performance optimizatsiya",
			"TypeScript va kod sifati",
			"API va Backend development",
			"Database dizayni va optimizatsiya",
			"SEO va web saytlar tezligi",
			"Responsive dizayn va UX/UI",
		}
	case TelegramBots:
		return []string{
			"Telegram bot yaratish: 0 dan boshlab",
			"To'lov tizimlari integratsiyasi",
			"CRM va bot bog'lash",
			"Avtomatik savdo botlari",
			"Mijozlar bilan muloqot botlari",
			"Bot orqali marketing va reklama",
			"Telegram bot xavfsizligi",
			"Bot analytics va hisobotlar",
		}
	case AIChatbots:
		return []string{
			"ChatGPT va biznes uchun foydalanish",
			"AI chatbot yaratish va sozlash",
			"OpenAI API bilan ishlash",
			"AI content generation",
			"Chatbot va mijozlar xizmati",
			"AI tools biznes uchun",
			"Machine Learning asoslari",
			"AI va avtomatlashtirish",
		}
	case Automation:
		return []string{
			"CRM tizimlari va integratsiya",
			"Biznes jarayonlarni avtomatlashtirish",
			"Email marketing avtomatizatsiyasi",
			"Savdo funnel va avtomatik follow-up",
			"Hisobot va analytics avtomatizatsiya",
			"Inventar boshqaruvi tizimlari",
			"HR va jamoaviy ishlar avtomatizatsiya",
			"Moliyaviy hisobotlar avtomatizatsiya",
		}
	case Startups:
		return []string{
			"Startup g'oyasini texnologiya bilan amalga oshirish",
			"MVP (Minimum Viable Product) yaratish",
			"Digital marketing strategiyalari",
			"Online biznes modellari",
			"E-commerce platformalari",
			"SaaS biznes yaratish",
			"Investorlar bilan ishlash",
			"Biznes scaling va o'sish",
		}
	default:
		return nil
	}
}

// Difficulty is the reading level requested from the generator.
type Difficulty int

const (
	Intermediate Difficulty = iota
	Beginner
	Advanced
)

// Label is the localized name embedded in prompts.
func (d Difficulty) Label() string {
	switch d {
	case Beginner:
		return "boshlang'ich"
	case Advanced:
		return "ilg'or"
	default:
		return "o'rta"
	}
}

func (d Difficulty) String() string {
	switch d {
	case Beginner:
		return "beginner"
	case Advanced:
		return "advanced"
	default:
		return "intermediate"
	}
}

var (
	beginnerSignals = []string{"asoslari", "0 dan boshlab", "kirish", "nima"}
	advancedSignals = []string{"optimizatsiya", "xavfsizlik", "ilg'or", "professional"}
)

// DifficultyOf classifies a topic line. Beginner signals win over advanced ones.
func DifficultyOf(topic string) Difficulty {
	lower := strings.ToLower(topic)
	if containsAny(lower, beginnerSignals) {
		return Beginner
	}
	if containsAny(lower, advancedSignals) {
		return Advanced
	}
	return Intermediate
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

const maxTags = 6

var baselineTags = []string{"web development", "programming", "tutorial", "o'zbek tili"}

// tagRules is ordered so tag assembly is deterministic.
var tagRules = []struct {
	keyword string
	tags    []string
}{
	{"javascript", []string{"JavaScript", "Frontend", "ES6", "Node.js"}},
	{"react", []string{"React", "JSX", "Components", "Hooks"}},
	{"telegram", []string{"Telegram Bot", "Bot Development", "API", "Automation"}},
	{"ai", []string{"AI", "ChatGPT", "Machine Learning", "Automation"}},
	{"biznes", []string{"Business", "Startup", "Entrepreneurship", "Growth"}},
	{"seo", []string{"SEO", "Google", "Traffic", "Marketing"}},
}

// TagsFor assembles the tag list for a topic line, capped at six entries.
func TagsFor(topic string) []string {
	lower := strings.ToLower(topic)
	tags := append([]string(nil), baselineTags...)
	for _, rule := range tagRules {
		if strings.Contains(lower, rule.keyword) {
			tags = append(tags, rule.tags...)
		}
	}
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

var seoKeywords = []string{
	"dasturlash o'rganish",
	"web sayt yaratish",
	"telegram bot",
	"biznes avtomatlashtirish",
	"startup g'oyalari",
	"online biznes",
	"digital marketing",
	"texnologiya yangiliklari",
}

// Keywords returns the SEO phrases attached to every generated idea.
func Keywords() []string {
	return append([]string(nil), seoKeywords[:4]...)
}
