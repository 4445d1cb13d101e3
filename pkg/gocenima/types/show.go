// Package types holds the public data structures returned by the gocenima
// client, decoupled from the internal scraping models.
package types

import "github.com/np4abdou/gocenima/internal/models"

// ContentType classifies a search result or show.
type ContentType string

const (
	ContentMovie  ContentType = "movie"
	ContentSeries ContentType = "series"
	ContentAnime  ContentType = "anime"
)

// SearchResult is one hit from a catalogue search.
type SearchResult struct {
	Title   string
	URL     string
	Type    ContentType
	Year    int
	Rating  float64
	Quality string
	Poster  string
}

// Season is one season of a series or anime.
type Season struct {
	Number       int
	DisplayLabel string
	URL          string
	Poster       string
}

// Episode is one playable entry of a season.
type Episode struct {
	Number        string
	DisplayNumber string
	Title         string
	URL           string
	IsSpecial     bool
}

// Show is the full record for a show page.
type Show struct {
	Title    string
	URL      string
	Type     ContentType
	Poster   string
	Synopsis string
	Rating   float64
	Year     int
	Genres   []string
	Trailer  string
	Seasons  []Season
}

// Stream is a resolved playable stream. Headers must accompany the media
// request or the host rejects it.
type Stream struct {
	VideoURL string
	EmbedURL string
	Headers  map[string]string
}

// FromInternalHit converts a scraped search hit to the public shape.
func FromInternalHit(hit models.SearchHit) SearchResult {
	return SearchResult{
		Title:   hit.Title,
		URL:     hit.URL,
		Type:    ContentType(hit.Type),
		Year:    hit.Meta.Year,
		Rating:  hit.Meta.Rating,
		Quality: hit.Meta.Quality,
		Poster:  hit.Meta.Poster,
	}
}

// FromInternalHits converts a scraped hit list to the public shape.
func FromInternalHits(hits []models.SearchHit) []SearchResult {
	out := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		out = append(out, FromInternalHit(hit))
	}
	return out
}

// FromInternalShow converts scraped show details to the public shape.
func FromInternalShow(details *models.ShowDetails) *Show {
	show := &Show{
		Title:    details.Title,
		URL:      details.URL,
		Type:     ContentType(details.Type),
		Poster:   details.Meta.Poster,
		Synopsis: details.Meta.Synopsis,
		Rating:   details.Meta.Rating,
		Year:     details.Meta.Year,
		Genres:   details.Meta.Genres,
		Trailer:  details.Meta.Trailer,
	}
	for _, season := range details.Seasons {
		show.Seasons = append(show.Seasons, Season{
			Number:       season.Number,
			DisplayLabel: season.DisplayLabel,
			URL:          season.URL,
			Poster:       season.Poster,
		})
	}
	return show
}

// FromInternalEpisodes converts a crawled episode list to the public shape.
func FromInternalEpisodes(episodes []models.Episode) []Episode {
	out := make([]Episode, 0, len(episodes))
	for _, ep := range episodes {
		out = append(out, Episode{
			Number:        ep.Number,
			DisplayNumber: ep.DisplayNumber,
			Title:         ep.Title,
			URL:           ep.URL,
			IsSpecial:     ep.IsSpecial,
		})
	}
	return out
}
