package registry

import (
	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// builtinSources is the default descriptor table. Alternate endpoints exist
// because these sites rotate domains without notice; order matters.
func builtinSources() []pipeline.SourceDescriptor {
	return []pipeline.SourceDescriptor{
		{
			ID:              "dramapulse",
			DisplayName:     "DramaPulse",
			PrimaryEndpoint: "https://dramapulse.sh",
			AlternateEndpoints: []string{
				"https://dramapulse.cx",
				"https://dramapulse.to",
			},
			Category:          pipeline.CategoryDrama,
			RequiresRendering: false,
			ListPath:          "/recently-added",
			Selectors: map[string]string{
				"itemContainer": "ul.list-episode-item > li",
				"title":         "h3.title",
				"link":          "a",
				"poster":        "img",
				"meta":          "span.time",
			},
			MinAcceptableItems: 20,
			Priority:           1,
			BackupSourceID:     "dramavault",
		},
		{
			ID:              "dramavault",
			DisplayName:     "DramaVault",
			PrimaryEndpoint: "https://dramavault.net",
			AlternateEndpoints: []string{
				"https://dramavault.co",
			},
			Category:          pipeline.CategoryDrama,
			RequiresRendering: true,
			ListPath:          "/latest",
			WaitSelector:      "div.film-list",
			Selectors: map[string]string{
				"itemContainer": "div.film-list div.item",
				"title":         "a.name",
				"link":          "a.name",
				"poster":        "img",
				"meta":          "div.meta",
			},
			MinAcceptableItems: 10,
			Priority:           2,
		},
		{
			ID:              "animeflux",
			DisplayName:     "AnimeFlux",
			PrimaryEndpoint: "https://animeflux.tv",
			AlternateEndpoints: []string{
				"https://animeflux.pro",
				"https://animeflux.live",
			},
			Category:          pipeline.CategoryAnime,
			RequiresRendering: true,
			ListPath:          "/recent-release",
			WaitSelector:      "ul.items",
			Selectors: map[string]string{
				"itemContainer": "ul.items > li",
				"title":         "p.name a",
				"link":          "p.name a",
				"poster":        "div.img img",
				"meta":          "p.released",
			},
			MinAcceptableItems: 20,
			Priority:           3,
		},
		{
			ID:              "cinemabay",
			DisplayName:     "CinemaBay",
			PrimaryEndpoint: "https://cinemabay.cc",
			AlternateEndpoints: []string{
				"https://cinemabay.vip",
			},
			Category:          pipeline.CategoryFilm,
			RequiresRendering: false,
			ListPath:          "/movies",
			Selectors: map[string]string{
				"itemContainer": "div.flw-item",
				"title":         "h2.film-name a",
				"link":          "h2.film-name a",
				"poster":        "img.film-poster-img",
				"meta":          "div.fd-infor",
			},
			MinAcceptableItems: 24,
			Priority:           4,
		},
		{
			ID:              "desiscreen",
			DisplayName:     "DesiScreen",
			PrimaryEndpoint: "https://desiscreen.in",
			AlternateEndpoints: []string{
				"https://desiscreen.me",
				"https://desiscreen.site",
			},
			Category:          pipeline.CategoryBollywood,
			RequiresRendering: false,
			ListPath:          "/new-releases",
			Selectors: map[string]string{
				"itemContainer": "article.post",
				"title":         "h2.entry-title a",
				"link":          "h2.entry-title a",
				"poster":        "img.wp-post-image",
				"meta":          "div.entry-meta",
			},
			MinAcceptableItems: 10,
			Priority:           5,
		},
	}
}
