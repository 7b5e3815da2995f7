package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	yearRE    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	ratingRE  = regexp.MustCompile(`\d+(\.\d+)?`)
	slugTrash = regexp.MustCompile(`[^a-z0-9]+`)
)

// lazyAttrs are checked before src; catalog sites lazy-load nearly every
// poster and leave a placeholder in src.
var lazyAttrs = []string{"data-src", "data-original", "data-lazy-src", "data-url"}

// slugOf derives a stable slug from the canonical URL's last meaningful path
// segment. Record IDs hang off this, so the rules must not drift.
func slugOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return sanitizeSlug(rawURL)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if s := sanitizeSlug(segments[i]); s != "" {
			return s
		}
	}
	return sanitizeSlug(u.Host)
}

func sanitizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugTrash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// yearFrom scans text for a 19xx/20xx year, defaulting to the current year.
func yearFrom(text string, now time.Time) int {
	if m := yearRE.FindString(text); m != "" {
		if y, err := strconv.Atoi(m); err == nil {
			return y
		}
	}
	return now.Year()
}

// parseRating pulls the first float out of text, 0 when absent.
func parseRating(text string) float64 {
	m := ratingRE.FindString(text)
	if m == "" {
		return 0
	}
	r, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return r
}

// posterFrom prefers lazy-load attributes over the direct src attribute.
func posterFrom(img *goquery.Selection) string {
	if img.Length() == 0 {
		return ""
	}
	for _, attr := range lazyAttrs {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	v, _ := img.Attr("src")
	return strings.TrimSpace(v)
}

// absolutize resolves href against base, returning href untouched when it is
// already absolute or base is unusable.
func absolutize(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

// cleanTitle collapses whitespace and strips common episode suffixes that
// list pages append to titles.
func cleanTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for _, marker := range []string{" Episode ", " Ep ", " EP "} {
		if idx := strings.Index(s, marker); idx > 0 {
			s = strings.TrimSpace(s[:idx])
			break
		}
	}
	return s
}
