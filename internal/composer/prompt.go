package composer

import (
	"strings"
	"text/template"

	"PortfolioCMS/internal/topics"
)

var promptTmpl = template.Must(template.New("blog").Parse(`Sen professional web developer va biznes konsultanti {{.Author}}siz. O'zbek tilidagi blog uchun quyidagi mavzu bo'yicha to'liq maqola yozing:

MAVZU: {{.Title}}
KATEGORIYA: {{.Category}}
QIYINLIK DARAJASI: {{.Difficulty}}
MAQSADLI AUDITORIYA: {{.Audience}}

TALABLAR:
1. Maqola faqat o'zbek tilida bo'lsin
2. Amaliy maslahatlar va real misollar bering
3. Step-by-step qo'llanma formatida yozing
4. O'zbek biznes muhitiga mos misollar keltiring
5. Code snippet va texnik tafsilotlar qo'shing (agar kerak bo'lsa)
6. Maqola uzunligi 1500-2500 so'z orasida bo'lsin
7. SEO uchun optimallashtirilgan bo'lsin

FORMATGA RIOYA QILING:
---TITLE---
[Maqola sarlavhasi]

---EXCERPT---
[Qisqa tavsif 150-200 so'z]

---SEO_TITLE---
[SEO uchun optimallashtirilgan sarlavha 60 belgidan kam]

---SEO_DESCRIPTION---
[Meta description 160 belgidan kam]

---CONTENT---
[To'liq maqola matni Markdown formatida]

Maqolani yozishda quyidagi uslubni ishlating:
- Sodda va tushunarli til
- Amaliy fokus
- O'zbek auditoriyasiga mos misollar
- Professional lekin do'stona ohang
- Harakat chaqiruvi bilan tugating

Maqola oxirida {{.Author}} haqida qisqa ma'lumot va uning xizmatlariga havola qo'shing.`))

type promptData struct {
	Author     string
	Title      string
	Category   topics.Category
	Difficulty string
	Audience   string
}

// BuildPrompt renders the generation prompt for one idea.
func BuildPrompt(idea topics.Idea, author string) string {
	var b strings.Builder
	// the template only references fields of promptData, so Execute cannot fail
	_ = promptTmpl.Execute(&b, promptData{
		Author:     author,
		Title:      idea.Title,
		Category:   idea.Category,
		Difficulty: idea.Difficulty.Label(),
		Audience:   idea.TargetAudience,
	})
	return b.String()
}
