package scrape

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Caption source tags recorded in scrape diagnostics.
const (
	CaptionSourceStateBlob = "state_blob"
	CaptionSourceRegex     = "regex"
	CaptionSourceMeta      = "meta"
)

// Embedded-state script IDs checked for a caption, most specific first.
var stateScriptIDs = []string{
	"SIGI_STATE",
	"__UNIVERSAL_DATA_FOR_REHYDRATION__",
	"__NEXT_DATA__",
}

// Caption-bearing keys inside embedded state JSON.
var captionKeys = map[string]bool{
	"desc":        true,
	"caption":     true,
	"description": true,
}

var descFieldPattern = regexp.MustCompile(`"(?:desc|caption)"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// CaptionText pulls the post caption out of a platform page, preferring the
// embedded state blob, then a raw regex match, then the meta description.
// Returns the text and the source tag, or ("", "") when nothing was found.
func CaptionText(doc *goquery.Document) (string, string) {
	if text := captionFromState(doc); text != "" {
		return text, CaptionSourceStateBlob
	}
	if text := captionFromRegex(doc); text != "" {
		return text, CaptionSourceRegex
	}
	if text := metaDescription(doc); text != "" {
		return text, CaptionSourceMeta
	}
	return "", ""
}

func captionFromState(doc *goquery.Document) string {
	var found string
	for _, id := range stateScriptIDs {
		doc.Find("script#" + id).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			var blob any
			if err := json.Unmarshal([]byte(s.Text()), &blob); err != nil {
				return true
			}
			found = longestCaptionValue(blob, 0)
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// longestCaptionValue walks the state JSON looking for caption-keyed string
// values; the longest wins because platforms nest truncated copies.
func longestCaptionValue(node any, depth int) string {
	if depth > 12 {
		return ""
	}
	best := ""
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if captionKeys[strings.ToLower(key)] {
				if text, ok := child.(string); ok && len(text) > len(best) {
					best = text
				}
				continue
			}
			if text := longestCaptionValue(child, depth+1); len(text) > len(best) {
				best = text
			}
		}
	case []any:
		for _, child := range v {
			if text := longestCaptionValue(child, depth+1); len(text) > len(best) {
				best = text
			}
		}
	}
	return best
}

func captionFromRegex(doc *goquery.Document) string {
	html, err := doc.Html()
	if err != nil {
		return ""
	}
	best := ""
	for _, m := range descFieldPattern.FindAllStringSubmatch(html, -1) {
		var decoded string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &decoded); err != nil {
			continue
		}
		if len(decoded) > len(best) {
			best = decoded
		}
	}
	return strings.TrimSpace(best)
}

func metaDescription(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
