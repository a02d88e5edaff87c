package domain

import (
	"strings"
	"time"
)

// Pricing holds the three published price points of a service (in UZS).
type Pricing struct {
	From    string `json:"from"`
	Average string `json:"average"`
	Premium string `json:"premium"`
}

// Service is one offering listed on the marketing pages.
type Service struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle,omitempty"`
	Description  string    `json:"description"`
	Features     []string  `json:"features"`
	Pricing      Pricing   `json:"pricing"`
	Timeline     string    `json:"timeline,omitempty"`
	Technologies []string  `json:"technologies"`
	Icon         string    `json:"icon,omitempty"`
	Color        string    `json:"color"`
	Popular      bool      `json:"popular"`
	Active       bool      `json:"active"`
	Order        int       `json:"order"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DefaultServices is the catalogue seeded into an empty store.
func DefaultServices() []Service {
	return []Service{
		{
			Title:       "Web Saytlar",
			Subtitle:    "Zamonaviy va SEO-optimallashgan",
			Description: "Tezkor, mobilga mos va qidiruv tizimlari uchun optimallashgan web saytlar: Next.js, Tailwind CSS va headless CMS asosida.",
			Features: []string{
				"SEO optimizatsiya",
				"Responsive dizayn",
				"3 soniyadan tez yuklanish",
				"CMS va admin panel",
				"SSL va xavfsizlik",
				"Google Analytics integratsiyasi",
			},
			Pricing:      Pricing{From: "2,000,000", Average: "3,500,000", Premium: "6,000,000"},
			Timeline:     "2-6 hafta",
			Technologies: []string{"Next.js", "React", "Tailwind CSS", "PostgreSQL", "Vercel"},
			Icon:         "Globe",
			Color:        "primary",
			Active:       true,
			Order:        1,
		},
		{
			Title:       "Telegram Botlar",
			Subtitle:    "Savdo va mijozlar uchun",
			Description: "Buyurtma qabul qilish, to'lovlar, CRM bilan bog'lanish va hisobotlar: to'liq avtomatik boshqaruv.",
			Features: []string{
				"Click, Payme, Uzcard to'lovlari",
				"CRM integratsiyasi",
				"Avtomatik buyurtma jarayoni",
				"Mahsulot katalogi",
				"Mijozlar bilan chat",
				"Hisobot va analytics",
			},
			Pricing:      Pricing{From: "1,500,000", Average: "2,500,000", Premium: "4,000,000"},
			Timeline:     "1-3 hafta",
			Technologies: []string{"Go", "Telegram Bot API", "PostgreSQL", "Payment APIs"},
			Icon:         "MessageCircle",
			Color:        "secondary",
			Popular:      true,
			Active:       true,
			Order:        2,
		},
	}
}

// Device classes recorded with analytics events.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// AnalyticsRecord is a single tracked page view.
type AnalyticsRecord struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	UserAgent string    `json:"userAgent,omitempty"`
	Referer   string    `json:"referer,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Country   string    `json:"country,omitempty"`
	Device    string    `json:"device,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalyticsFilter narrows ListAnalytics.
type AnalyticsFilter struct {
	Path     string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

// Matches reports whether the record satisfies the filter, ignoring the limit.
func (f AnalyticsFilter) Matches(r AnalyticsRecord) bool {
	if f.Path != "" && r.Path != f.Path {
		return false
	}
	if f.DateFrom != nil && r.Timestamp.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && r.Timestamp.After(*f.DateTo) {
		return false
	}
	return true
}

// DeviceFromUserAgent classifies a user agent string.
func DeviceFromUserAgent(ua string) string {
	ua = strings.ToLower(ua)
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return DeviceTablet
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}
