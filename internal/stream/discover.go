package stream

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// mediaExtensions marks hrefs worth treating as playable media.
var mediaExtensions = []string{".m3u8", ".mpd", ".mp4", ".mkv", ".webm"}

// Discover scans a detail-page document for candidate media URLs: video and
// source elements, iframes pointing at embed players, and plain anchors with
// media extensions. Order of discovery is preserved for tie-breaking.
func Discover(doc pipeline.Document) ([]pipeline.StreamCandidate, error) {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	var urls []string
	seen := make(map[string]struct{})
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		if _, dup := seen[raw]; dup {
			return
		}
		seen[raw] = struct{}{}
		urls = append(urls, raw)
	}

	parsed.Find("video[src], video source[src], source[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			add(src)
		}
	})
	parsed.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if strings.Contains(strings.ToLower(src), "embed") || hasMediaExtension(src) {
			add(src)
		}
	})
	parsed.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if hasMediaExtension(href) {
			add(href)
		}
	})

	candidates := make([]pipeline.StreamCandidate, 0, len(urls))
	for _, u := range urls {
		candidates = append(candidates, Infer(u))
	}
	return candidates, nil
}

func hasMediaExtension(raw string) bool {
	lower := strings.ToLower(raw)
	for _, ext := range mediaExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
