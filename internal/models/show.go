// Package models contains the data structures shared by the scraping
// pipeline, the CLI and the REST facade.
package models

// ContentType classifies a search hit or show page.
type ContentType string

const (
	ContentMovie   ContentType = "movie"
	ContentSeries  ContentType = "series"
	ContentAnime   ContentType = "anime"
	ContentUnknown ContentType = "unknown"
)

// Metadata holds the opportunistic fields scraped from listing cards and
// show pages. Fields the page does not expose stay at their zero value.
type Metadata struct {
	Year         int      `json:"year,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Quality      string   `json:"quality,omitempty"`
	Poster       string   `json:"poster,omitempty"`
	Synopsis     string   `json:"synopsis,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Cast         []string `json:"cast,omitempty"`
	Directors    []string `json:"directors,omitempty"`
	Category     string   `json:"category,omitempty"`
	EpisodeCount string   `json:"episode_count,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	Language     string   `json:"language,omitempty"`
	Country      string   `json:"country,omitempty"`
	Trailer      string   `json:"trailer,omitempty"`
}

// SearchHit is a single result from the search endpoint.
type SearchHit struct {
	Title    string      `json:"title"`
	RawTitle string      `json:"original_title"`
	URL      string      `json:"url"`
	Type     ContentType `json:"type"`
	Meta     Metadata    `json:"metadata"`
}

// ShowDetails is the full record for a show page. Series and anime carry
// Seasons; movies carry Servers directly.
type ShowDetails struct {
	Title    string      `json:"title"`
	RawTitle string      `json:"original_title"`
	URL      string      `json:"url"`
	Type     ContentType `json:"type"`
	Meta     Metadata    `json:"metadata"`

	Seasons []Season       `json:"seasons,omitempty"`
	Servers []StreamServer `json:"servers,omitempty"`
}

// FinalSeasonBase is the sentinel a "Final Season" label encodes to. Parts
// add on top of it (Final Season Part 2 == 102), so finals always sort
// after every ordinary season number.
const FinalSeasonBase = 100

// Season is one season of a series or anime. Episodes is lazily resolved:
// it is populated at most once via ResolveEpisodes, and a populated list is
// never fetched again.
type Season struct {
	Number       int       `json:"season_number"`
	Part         string    `json:"season_part,omitempty"`
	DisplayLabel string    `json:"display_label"`
	URL          string    `json:"url"`
	Poster       string    `json:"poster,omitempty"`
	Episodes     []Episode `json:"episodes"`

	episodesResolved bool
}

// EpisodesResolved reports whether the episode list has been populated.
func (s *Season) EpisodesResolved() bool { return s.episodesResolved }

// ResolveEpisodes stores the crawled episode list. The transition happens
// once; later calls are no-ops.
func (s *Season) ResolveEpisodes(episodes []Episode, poster string) {
	if s.episodesResolved {
		return
	}
	s.Episodes = episodes
	if poster != "" {
		s.Poster = poster
	}
	s.episodesResolved = true
}

// Episode is a single playable entry of a season. Number is kept as the raw
// decimal string from the site ("0" marks specials without a number,
// anything non-numeric sorts last).
type Episode struct {
	Number        string         `json:"episode_number"`
	DisplayNumber string         `json:"display_number"`
	Title         string         `json:"title"`
	URL           string         `json:"url"`
	IsSpecial     bool           `json:"is_special"`
	Servers       []StreamServer `json:"servers"`

	serversResolved bool
}

// ServersResolved reports whether the server list has been populated.
func (e *Episode) ServersResolved() bool { return e.serversResolved }

// ResolveServers stores the polled server list, once.
func (e *Episode) ResolveServers(servers []StreamServer) {
	if e.serversResolved {
		return
	}
	e.Servers = servers
	e.serversResolved = true
}

// StreamServer is one resolved server slot. Only slots whose embed could be
// deobfuscated into a direct VideoURL are ever surfaced.
type StreamServer struct {
	Name         string `json:"name"`
	ServerNumber int    `json:"server_number"`
	EmbedURL     string `json:"embed_url"`
	VideoURL     string `json:"video_url"`
}
