// Package extract turns fetched documents into canonical content records.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// rawTypeByCategory is the default raw type string a structural extractor
// stamps on records; the aggregation synonym table maps it back to a
// canonical category.
var rawTypeByCategory = map[pipeline.Category]string{
	pipeline.CategoryDrama:     "drama",
	pipeline.CategoryAnime:     "anime",
	pipeline.CategoryFilm:      "movie",
	pipeline.CategoryBollywood: "bollywood",
}

// DecorateFunc lets a source-specific extractor refine a record parsed from
// one item node. It runs after the generic field extraction.
type DecorateFunc func(item *goquery.Selection, source pipeline.SourceDescriptor, rec *pipeline.ContentRecord)

// Structural extracts records using a source's configured selectors. One
// malformed item node is logged and skipped; it never aborts the rest of the
// document.
type Structural struct {
	clock    pipeline.Clock
	stats    *pipeline.RunStats
	logger   *zap.Logger
	decorate DecorateFunc
}

// NewStructural builds a selector-driven extractor.
func NewStructural(clock pipeline.Clock, stats *pipeline.RunStats, logger *zap.Logger) *Structural {
	return &Structural{clock: clock, stats: stats, logger: logger}
}

// WithDecorator returns a copy running fn on every parsed record.
func (x *Structural) WithDecorator(fn DecorateFunc) *Structural {
	clone := *x
	clone.decorate = fn
	return &clone
}

// Extract implements pipeline.Extractor.
func (x *Structural) Extract(doc pipeline.Document, source pipeline.SourceDescriptor) ([]pipeline.ContentRecord, error) {
	container := source.Selectors["itemContainer"]
	if container == "" {
		return nil, fmt.Errorf("source %s: no itemContainer selector configured", source.ID)
	}

	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	base := doc.BaseDomain
	if base == "" {
		base = doc.URL
	}

	var records []pipeline.ContentRecord
	parsed.Find(container).Each(func(i int, item *goquery.Selection) {
		rec, err := x.extractItem(item, source, base)
		if err != nil {
			x.logger.Warn("item skipped",
				zap.String("source", source.ID),
				zap.Int("index", i),
				zap.Error(err))
			if x.stats != nil {
				x.stats.ItemSkipped()
			}
			return
		}
		records = append(records, rec)
	})
	return records, nil
}

// extractItem parses a single item node. Panics from malformed markup are
// converted to errors so the caller's per-item isolation holds.
func (x *Structural) extractItem(item *goquery.Selection, source pipeline.SourceDescriptor, base string) (rec pipeline.ContentRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("item parse panic: %v", r)
		}
	}()

	link := item.Find(selectorOr(source, "link", "a")).First()
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return pipeline.ContentRecord{}, fmt.Errorf("item without link")
	}
	canonical := absolutize(base, href)

	title := cleanTitle(item.Find(selectorOr(source, "title", "a")).First().Text())
	img := item.Find(selectorOr(source, "poster", "img")).First()
	if title == "" {
		if alt, ok := img.Attr("alt"); ok {
			title = cleanTitle(alt)
		}
	}
	if title == "" {
		return pipeline.ContentRecord{}, fmt.Errorf("item without title")
	}

	meta := ""
	if sel := source.Selectors["meta"]; sel != "" {
		meta = item.Find(sel).Text()
	}
	if strings.TrimSpace(meta) == "" {
		meta = item.Text()
	}

	now := x.clock.Now()
	genres := collectTexts(item.Find(selectorOr(source, "genres", "a[href*='genre']")))
	countries := collectTexts(item.Find(selectorOr(source, "countries", "a[href*='country']")))

	hints := append(append([]string{}, countries...), genres...)
	rec = pipeline.ContentRecord{
		ID:           source.ID + "_" + slugOf(canonical),
		Title:        title,
		CanonicalURL: canonical,
		PosterURL:    absolutize(base, posterFrom(img)),
		Year:         yearFrom(meta, now),
		Rating:       parseRating(item.Find(selectorOr(source, "rating", ".rating, .score")).Text()),
		Genres:       genres,
		Countries:    countries,
		Language:     inferLanguage(source.Category, hints...),
		Source:       source.ID,
		ContentType:  rawTypeByCategory[source.Category],
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if x.decorate != nil {
		x.decorate(item, source, &rec)
	}
	return rec, nil
}

func selectorOr(source pipeline.SourceDescriptor, field, fallback string) string {
	if sel, ok := source.Selectors[field]; ok && sel != "" {
		return sel
	}
	return fallback
}

func collectTexts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}
