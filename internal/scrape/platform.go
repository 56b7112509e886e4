package scrape

import (
	"net/url"
	"strings"

	"github.com/simmerhq/simmer/internal/extract/caption"
)

// DetectPlatform maps a URL's hostname to a caption-platform tag, or ""
// when the host is not a known caption platform.
func DetectPlatform(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com"):
		return caption.PlatformTikTok
	case host == "instagram.com" || strings.HasSuffix(host, ".instagram.com"):
		return caption.PlatformInstagram
	default:
		return ""
	}
}
