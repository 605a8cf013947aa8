package catalogpix

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// AllowedExtensions are the image extensions accepted by the URL filter and
// the persistence layer.
var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// DenyPatterns are URL substrings indicating non-product images.
var DenyPatterns = []string{
	"logo", "icon", "favicon", "banner", "sprite",
	"badge", "button", "widget", "avatar",
	"thumbnail", "thumb", "placeholder", "watermark",
	"category", "brandlist", "brand-list", "brand_list",
	"social", "share", "spinner", "loading",
	"_mini", "-mini", "mini_", "mini-",
}

// tinySizeRe matches small-size indicators embedded in image URLs, e.g.
// "_50x50" or "-64x64.". Three-digit dimensions are left alone because
// product shots are commonly named "800x800".
var tinySizeRe = regexp.MustCompile(`(?i)(^|[_/.-])\d{1,2}x\d{1,2}([_.-]|$)`)

// KeepURL is the URL Filter: a pure predicate deciding whether a candidate
// URL is worth a network round-trip. It rejects malformed or relative URLs,
// disallowed extensions and known non-product patterns.
func KeepURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && !AllowedExtensions[ext] {
		return false
	}

	lower := strings.ToLower(rawURL)
	for _, p := range DenyPatterns {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return !tinySizeRe.MatchString(strings.ToLower(u.Path))
}

// filterCandidates applies KeepURL to a candidate list, preserving order.
// Returns survivors and the number rejected.
func filterCandidates(candidates []CandidateURL) ([]CandidateURL, int) {
	kept := make([]CandidateURL, 0, len(candidates))
	for _, c := range candidates {
		if KeepURL(c.URL) {
			kept = append(kept, c)
		}
	}
	return kept, len(candidates) - len(kept)
}
