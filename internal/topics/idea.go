package topics

// Idea describes one generation request.
type Idea struct {
	Title          string
	Category       Category
	Tags           []string
	Keywords       []string
	Difficulty     Difficulty
	TargetAudience string
}

// NewIdea enriches a bare title with the catalog's tags, keywords,
// difficulty and audience.
func NewIdea(title string, category Category) Idea {
	return Idea{
		Title:          title,
		Category:       category,
		Tags:           TagsFor(title),
		Keywords:       Keywords(),
		Difficulty:     DifficultyOf(title),
		TargetAudience: category.Audience(),
	}
}

// All returns every catalog topic, flattened across categories.
func All() []Idea {
	var ideas []Idea
	for _, category := range Categories {
		for _, title := range category.Topics() {
			ideas = append(ideas, NewIdea(title, category))
		}
	}
	return ideas
}

// Picker draws ideas from a fixed list.
type Picker struct {
	ideas []Idea
	intn  func(n int) int
}

// NewPicker samples uniformly from ideas using intn, which must return
// a value in [0, n).
func NewPicker(ideas []Idea, intn func(n int) int) *Picker {
	return &Picker{ideas: ideas, intn: intn}
}

// Random returns one idea. Sampling is uniform over the flattened list,
// so larger categories are drawn proportionally more often.
func (p *Picker) Random() (Idea, bool) {
	if len(p.ideas) == 0 {
		return Idea{}, false
	}
	return p.ideas[p.intn(len(p.ideas))], true
}

// Samples are the fixed seed topics published on first boot.
func Samples() []Idea {
	return []Idea{
		{
			Title:          "Telegram Bot Yaratish: Biznes Uchun To'liq Qo'llanma",
			Category:       TelegramBots,
			Tags:           []string{"telegram bot", "biznes", "automation", "api"},
			Keywords:       []string{"telegram bot yaratish", "biznes bot"},
			Difficulty:     Intermediate,
			TargetAudience: "Biznes egalari",
		},
		{
			Title:          "React.js bilan Zamonaviy Web Sayt Yaratish",
			Category:       WebDevelopment,
			Tags:           []string{"react", "javascript", "web development", "frontend"},
			Keywords:       []string{"react web sayt", "javascript"},
			Difficulty:     Beginner,
			TargetAudience: "Dasturchilar",
		},
	}
}
