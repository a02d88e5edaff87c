package composer

import (
	"regexp"
	"strings"
)

// DefaultSlug is used when a title has no transliterable characters.
const DefaultSlug = "blog-post"

var (
	transliterator = strings.NewReplacer(
		"ş", "sh", "ç", "ch", "ğ", "gh", "ü", "u", "ö", "o",
		"ň", "ng", "ž", "zh", "ý", "y", "ä", "a", "ë", "e",
		"ı", "i", "ć", "c", "đ", "d", "ñ", "n", "õ", "o",
	)
	slugStripRe  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRe  = regexp.MustCompile(`\s+`)
	slugHyphenRe = regexp.MustCompile(`-+`)
)

// Slugify derives a URL slug from a title. The result only contains
// lowercase ASCII letters, digits and single inner hyphens.
func Slugify(title string) string {
	slug := transliterator.Replace(strings.ToLower(title))
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugSpaceRe.ReplaceAllString(slug, "-")
	slug = slugHyphenRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return DefaultSlug
	}
	return slug
}
