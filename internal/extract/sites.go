package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// Source-specific extractors are thin decorations over the structural core.
// Each one encodes the quirks of a single site's list markup; everything
// shared lives in Structural.

// newDramaPulse handles dramapulse list pages. The span.time node carries the
// air date, and subbed/raw badges leak into titles.
func newDramaPulse(base *Structural) pipeline.Extractor {
	return base.WithDecorator(func(item *goquery.Selection, _ pipeline.SourceDescriptor, rec *pipeline.ContentRecord) {
		rec.Title = strings.TrimSpace(strings.TrimSuffix(rec.Title, "(RAW)"))
		if badge := item.Find("span.type").Text(); strings.EqualFold(strings.TrimSpace(badge), "movie") {
			rec.ContentType = "drama movie"
		}
	})
}

// newAnimeFlux handles animeflux release listings. Titles carry the original
// romaji in a title attribute, and released text is the only year hint.
func newAnimeFlux(base *Structural) pipeline.Extractor {
	return base.WithDecorator(func(item *goquery.Selection, _ pipeline.SourceDescriptor, rec *pipeline.ContentRecord) {
		if original, ok := item.Find("p.name a").Attr("title"); ok {
			original = strings.TrimSpace(original)
			if original != "" && original != rec.Title {
				rec.OriginalTitle = original
			}
		}
		rec.Language = "Japanese"
	})
}

// newCinemaBay handles cinemabay film cards: rating sits in the fd-infor
// strip and the card distinguishes movies from TV via fdi-type.
func newCinemaBay(base *Structural) pipeline.Extractor {
	return base.WithDecorator(func(item *goquery.Selection, _ pipeline.SourceDescriptor, rec *pipeline.ContentRecord) {
		if rate := item.Find("span.fdi-rate").Text(); rate != "" {
			rec.Rating = parseRating(rate)
		}
		if kind := strings.TrimSpace(item.Find("span.fdi-type").Text()); strings.EqualFold(kind, "tv") {
			rec.ContentType = "series"
		}
		if backdrop, ok := item.Find("img.film-poster-img").Attr("data-backdrop"); ok {
			rec.BackdropURL = strings.TrimSpace(backdrop)
		}
	})
}
