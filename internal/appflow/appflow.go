// Package appflow drives the interactive CLI session: search, selection
// menus and stream playback, each network stage wrapped in a spinner.
package appflow

import (
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/np4abdou/gocenima/internal/models"
	"github.com/np4abdou/gocenima/internal/player"
	"github.com/np4abdou/gocenima/internal/scraper"
	"github.com/np4abdou/gocenima/internal/util"
)

// SearchShow queries the site and lets the user pick one hit.
func SearchShow(s *scraper.Scraper, query string, contentType models.ContentType) *models.SearchHit {
	searchStart := time.Now()

	var hits []models.SearchHit
	var searchErr error
	_ = spinner.New().
		Title("Searching...").
		Type(spinner.Dots).
		Action(func() {
			hits, searchErr = s.Search(query, contentType)
		}).
		Run()

	if searchErr != nil {
		log.Fatalln("Search failed:", util.ErrorHandler(searchErr))
	}
	if len(hits) == 0 {
		log.Fatalln("No results found for:", query)
	}

	util.Debugf("[PERF] search completed in %v", time.Since(searchStart))

	if len(hits) == 1 {
		return &hits[0]
	}

	idx, err := fuzzyfinder.Find(
		hits,
		func(i int) string {
			return hitLabel(hits[i])
		},
		fuzzyfinder.WithPromptString("Select a title: "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i < 0 || i >= len(hits) {
				return ""
			}
			hit := hits[i]
			return fmt.Sprintf("Type: %s\nYear: %d\nRating: %.1f\nURL: %s",
				hit.Type, hit.Meta.Year, hit.Meta.Rating, hit.URL)
		}),
	)
	if err != nil {
		log.Fatalln("Selection cancelled:", util.ErrorHandler(err))
	}
	return &hits[idx]
}

func hitLabel(hit models.SearchHit) string {
	label := hit.Title
	if hit.Meta.Year > 0 {
		label = fmt.Sprintf("%s (%d)", label, hit.Meta.Year)
	}
	if hit.Meta.Quality != "" {
		label = fmt.Sprintf("%s [%s]", label, hit.Meta.Quality)
	}
	return fmt.Sprintf("%s (%s)", label, hit.Type)
}

// FetchShowDetails loads the full show record for a picked hit.
func FetchShowDetails(s *scraper.Scraper, hit *models.SearchHit) *models.ShowDetails {
	detailsStart := time.Now()

	var details *models.ShowDetails
	var detailsErr error
	_ = spinner.New().
		Title("Fetching show details...").
		Type(spinner.Dots).
		Action(func() {
			details, detailsErr = s.GetShowDetails(hit.URL)
		}).
		Run()

	if detailsErr != nil {
		log.Fatalln("Failed to fetch show details:", util.ErrorHandler(detailsErr))
	}

	util.Debugf("[PERF] show details completed in %v", time.Since(detailsStart))
	return details
}

// SelectSeason shows the season menu. A single season is returned directly.
func SelectSeason(details *models.ShowDetails) *models.Season {
	if len(details.Seasons) == 0 {
		log.Fatalln("The selected show has no seasons on the server.")
	}
	if len(details.Seasons) == 1 {
		return &details.Seasons[0]
	}

	options := make([]huh.Option[int], len(details.Seasons))
	for i, season := range details.Seasons {
		options[i] = huh.NewOption(season.DisplayLabel, i)
	}

	var picked int
	err := huh.NewSelect[int]().
		Title("Select a season").
		Options(options...).
		Value(&picked).
		Run()
	if err != nil {
		log.Fatalln("Selection cancelled:", util.ErrorHandler(err))
	}
	return &details.Seasons[picked]
}

// GetSeasonEpisodes crawls the season listing and lets the user pick an
// episode.
func GetSeasonEpisodes(s *scraper.Scraper, season *models.Season) *models.Episode {
	episodesStart := time.Now()

	var episodes []models.Episode
	var crawlErr error
	_ = spinner.New().
		Title("Loading episodes...").
		Type(spinner.Dots).
		Action(func() {
			episodes, crawlErr = s.FetchSeasonEpisodes(season)
		}).
		Run()

	if crawlErr != nil {
		log.Fatalln("Failed to load episodes:", util.ErrorHandler(crawlErr))
	}
	if len(episodes) == 0 {
		log.Fatalln("The selected season has no episodes on the server.")
	}

	util.Debugf("[PERF] episode crawl completed in %v", time.Since(episodesStart))

	idx, err := fuzzyfinder.Find(
		episodes,
		func(i int) string {
			ep := episodes[i]
			if ep.Title != "" {
				return fmt.Sprintf("Episode %s: %s", ep.DisplayNumber, ep.Title)
			}
			return "Episode " + ep.DisplayNumber
		},
		fuzzyfinder.WithPromptString("Select an episode: "),
	)
	if err != nil {
		log.Fatalln("Selection cancelled:", util.ErrorHandler(err))
	}
	return &episodes[idx]
}

// ResolveAndPlay resolves the stream for an episode or movie URL and hands
// it to mpv. The embed URL doubles as the referer; hosts refuse the media
// request without it.
func ResolveAndPlay(s *scraper.Scraper, episode *models.Episode, title string) {
	var servers []models.StreamServer
	_ = spinner.New().
		Title("Resolving stream servers...").
		Type(spinner.Dots).
		Action(func() {
			servers = s.FetchEpisodeServers(episode)
		}).
		Run()

	if len(servers) == 0 {
		log.Fatalln("No working servers found for this episode.")
	}

	selected := servers[0]
	referer := selected.EmbedURL
	if referer == "" {
		referer = s.BaseURL()
	}

	util.Info("Starting playback", "server", selected.Name)
	err := player.Play(player.StreamRequest{
		VideoURL:  selected.VideoURL,
		Referer:   referer,
		UserAgent: s.UserAgent(),
		Title:     title,
	})
	if err != nil {
		log.Fatalln("Playback failed:", util.ErrorHandler(err))
	}
}

// PlayMovie plays the first resolved server of a movie record.
func PlayMovie(s *scraper.Scraper, details *models.ShowDetails) {
	if len(details.Servers) == 0 {
		log.Fatalln("No working servers found for this movie.")
	}
	selected := details.Servers[0]
	referer := selected.EmbedURL
	if referer == "" {
		referer = s.BaseURL()
	}

	util.Info("Starting playback", "server", selected.Name)
	err := player.Play(player.StreamRequest{
		VideoURL:  selected.VideoURL,
		Referer:   referer,
		UserAgent: s.UserAgent(),
		Title:     details.Title,
	})
	if err != nil {
		log.Fatalln("Playback failed:", util.ErrorHandler(err))
	}
}
