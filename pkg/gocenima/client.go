// Package gocenima provides a public API for searching and resolving
// streams from TopCinema. It can be embedded as a library in other Go
// projects.
package gocenima

import (
	"github.com/pkg/errors"

	"github.com/np4abdou/gocenima/internal/models"
	"github.com/np4abdou/gocenima/internal/scraper"
	"github.com/np4abdou/gocenima/pkg/gocenima/types"
)

// Client is the entry point for catalogue browsing and stream resolution.
type Client struct {
	scraper *scraper.Scraper
}

// NewClient creates a client, discovering the site's working domain.
func NewClient() *Client {
	return &Client{scraper: scraper.New("")}
}

// NewClientWithBaseURL creates a client pinned to a known origin, skipping
// domain discovery.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{scraper: scraper.New(baseURL)}
}

// BaseURL returns the origin the client is talking to.
func (c *Client) BaseURL() string { return c.scraper.BaseURL() }

// Search queries the catalogue. contentType may be "movie", "series",
// "anime" or "" for everything.
func (c *Client) Search(query string, contentType types.ContentType) ([]types.SearchResult, error) {
	hits, err := c.scraper.Search(query, models.ContentType(contentType))
	if err != nil {
		return nil, err
	}
	return types.FromInternalHits(hits), nil
}

// GetShow fetches the full record for a show URL obtained from Search.
func (c *Client) GetShow(showURL string) (*types.Show, error) {
	details, err := c.scraper.GetShowDetails(showURL)
	if err != nil {
		return nil, err
	}
	return types.FromInternalShow(details), nil
}

// GetSeasonEpisodes crawls a season URL obtained from GetShow.
func (c *Client) GetSeasonEpisodes(seasonURL string) ([]types.Episode, error) {
	season := &models.Season{URL: seasonURL}
	episodes, err := c.scraper.FetchSeasonEpisodes(season)
	if err != nil {
		return nil, err
	}
	return types.FromInternalEpisodes(episodes), nil
}

// ResolveStream turns an episode or movie URL into a playable stream.
func (c *Client) ResolveStream(contentURL string) (*types.Stream, error) {
	episode := &models.Episode{URL: contentURL}
	servers := c.scraper.FetchEpisodeServers(episode)
	if len(servers) == 0 {
		return nil, errors.Errorf("no working servers found for %s", contentURL)
	}

	selected := servers[0]
	referer := selected.EmbedURL
	if referer == "" {
		referer = c.scraper.BaseURL()
	}
	return &types.Stream{
		VideoURL: selected.VideoURL,
		EmbedURL: selected.EmbedURL,
		Headers: map[string]string{
			"Referer":    referer,
			"User-Agent": c.scraper.UserAgent(),
		},
	}, nil
}
