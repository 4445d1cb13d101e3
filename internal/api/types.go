// Package api exposes the scraping pipeline over HTTP for frontends that
// cannot embed the Go client directly.
package api

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/np4abdou/gocenima/internal/models"
	"github.com/np4abdou/gocenima/internal/scraper"
)

// SearchResult is the wire shape of one search hit.
type SearchResult struct {
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	URL           string  `json:"url"`
	Type          string  `json:"type"`
	Year          int     `json:"year,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
	Poster        string  `json:"poster,omitempty"`
	Quality       string  `json:"quality,omitempty"`
}

// ShowResponse is the wire shape of a show-details lookup. Season episode
// lists are intentionally empty; clients page them in via /season/episodes.
type ShowResponse struct {
	Title         string                `json:"title"`
	OriginalTitle string                `json:"original_title,omitempty"`
	URL           string                `json:"url"`
	Type          string                `json:"type"`
	Poster        string                `json:"bg_poster,omitempty"`
	Description   string                `json:"description,omitempty"`
	Rating        float64               `json:"rating,omitempty"`
	Year          int                   `json:"year,omitempty"`
	Genres        []string              `json:"genres,omitempty"`
	Trailer       string                `json:"trailer,omitempty"`
	Seasons       []SeasonResponse      `json:"seasons"`
	Servers       []models.StreamServer `json:"servers,omitempty"`
}

// SeasonResponse is one season entry inside a ShowResponse.
type SeasonResponse struct {
	SeasonNumber int    `json:"season_number"`
	DisplayLabel string `json:"display_label"`
	URL          string `json:"url"`
	Poster       string `json:"poster,omitempty"`
}

// EpisodeResponse is one entry of a season's episode listing.
type EpisodeResponse struct {
	EpisodeNumber string `json:"episode_number"`
	DisplayNumber string `json:"display_number"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	IsSpecial     bool   `json:"is_special"`
}

// StreamSource is the resolved playback record for one content URL. The
// headers must be sent by the player or the host rejects the stream.
type StreamSource struct {
	ServerNumber int               `json:"server_number"`
	EmbedURL     string            `json:"embed_url"`
	VideoURL     string            `json:"video_url"`
	Headers      map[string]string `json:"headers"`
	MPVCommand   string            `json:"mpv_command"`
}

// junkPatterns remove release-group noise that survives title cleaning on
// some listing cards.
var junkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:1080p|720p|480p|360p)\b`),
	regexp.MustCompile(`(?i)\b(?:WEB-DL|BluRay|HDTV|CAM)\b`),
	regexp.MustCompile(`(?i)\b(?:x264|x265|HEVC)\b`),
	regexp.MustCompile(`\b\d{1,2}\.\d\b`),
	regexp.MustCompile(`[★⭐]\s*\d+\.?\d*`),
	regexp.MustCompile(`\[\s*\d+\.?\d*\s*\]`),
	regexp.MustCompile(`(?i)\b(?:Season|الموسم)\s*\d+`),
	regexp.MustCompile(`(?i)\b(?:Episode|الحلقة)\s*\d+`),
}

// CleanShowTitle strips Arabic prefixes and release junk from a scraped
// title. The bare site name means the parse grabbed the page header, so it
// collapses to "".
func CleanShowTitle(title string) string {
	cleaned := scraper.CleanTitle(title)
	if strings.EqualFold(cleaned, "topcinema") {
		return ""
	}
	for _, re := range junkPatterns {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	return scraper.CleanText(cleaned)
}

func transformSearchHit(hit models.SearchHit) SearchResult {
	return SearchResult{
		Title:         CleanShowTitle(hit.Title),
		OriginalTitle: hit.RawTitle,
		URL:           hit.URL,
		Type:          string(hit.Type),
		Year:          hit.Meta.Year,
		Rating:        hit.Meta.Rating,
		Poster:        hit.Meta.Poster,
		Quality:       hit.Meta.Quality,
	}
}

func transformShowDetails(details *models.ShowDetails) ShowResponse {
	seasons := make([]SeasonResponse, 0, len(details.Seasons))
	for _, season := range details.Seasons {
		seasons = append(seasons, SeasonResponse{
			SeasonNumber: season.Number,
			DisplayLabel: season.DisplayLabel,
			URL:          season.URL,
			Poster:       season.Poster,
		})
	}
	return ShowResponse{
		Title:         CleanShowTitle(details.Title),
		OriginalTitle: details.RawTitle,
		URL:           details.URL,
		Type:          string(details.Type),
		Poster:        details.Meta.Poster,
		Description:   details.Meta.Synopsis,
		Rating:        details.Meta.Rating,
		Year:          details.Meta.Year,
		Genres:        details.Meta.Genres,
		Trailer:       details.Meta.Trailer,
		Seasons:       seasons,
		Servers:       details.Servers,
	}
}

func transformEpisode(ep models.Episode) EpisodeResponse {
	return EpisodeResponse{
		EpisodeNumber: ep.Number,
		DisplayNumber: ep.DisplayNumber,
		Title:         ep.Title,
		URL:           ep.URL,
		IsSpecial:     ep.IsSpecial,
	}
}

// MPVCommand renders the ready-to-paste mpv invocation for a resolved
// stream.
func MPVCommand(videoURL, referer, userAgent string) string {
	return fmt.Sprintf(`mpv %q --referrer=%q --user-agent=%q --vo=gpu --x11-bypass-compositor=no`,
		videoURL, referer, userAgent)
}
