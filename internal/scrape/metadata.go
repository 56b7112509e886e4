package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/simmerhq/simmer/internal/recipe"
)

// Baseline builds a medium-confidence recipe skeleton from page metadata.
// It carries no list content; later strategies overlay onto it.
func Baseline(doc *goquery.Document) recipe.ExtractedRecipe {
	title := metaContent(doc, `meta[property="og:title"]`)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	siteName := metaContent(doc, `meta[property="og:site_name"]`)
	if siteName != "" && title != "" {
		title = stripSiteSuffix(title, siteName)
	}
	return recipe.ExtractedRecipe{
		Title:       title,
		Description: metaDescription(doc),
		ImageURL:    metaContent(doc, `meta[property="og:image"]`),
		Confidence:  recipe.ConfidenceMedium,
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).Attr("content")
	return strings.TrimSpace(v)
}

// stripSiteSuffix removes " - SiteName" / " | SiteName" tails from a title.
func stripSiteSuffix(title, siteName string) string {
	for _, sep := range []string{" - ", " | ", " – ", " — "} {
		suffix := sep + siteName
		if strings.HasSuffix(title, suffix) && len(title) > len(suffix) {
			return strings.TrimSpace(strings.TrimSuffix(title, suffix))
		}
	}
	return title
}

// VisibleText strips markup and returns the page's readable text, one line
// per block element where the source had line structure.
func VisibleText(doc *goquery.Document) string {
	clone := doc.Selection.Clone()
	clone.Find("script, style, noscript, svg, nav, footer").Remove()

	var b strings.Builder
	clone.Find("h1, h2, h3, h4, p, li, div, span, br").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		b.WriteString(text)
		b.WriteString("\n")
	})
	if b.Len() == 0 {
		return strings.TrimSpace(clone.Text())
	}
	return strings.TrimSpace(b.String())
}
