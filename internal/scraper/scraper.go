// Package scraper implements the TopCinema content-resolution pipeline:
// search, show and season parsing, paginated episode crawling, content-id
// discovery, server polling and VidTube deobfuscation.
package scraper

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/np4abdou/gocenima/internal/models"
	"github.com/np4abdou/gocenima/internal/util"
)

const (
	// DefaultBaseURL is the last known origin; the real working origin is
	// discovered by following its redirects on first use.
	DefaultBaseURL = "https://topcinema.rip"

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
)

type endpointKind int

const (
	endpointSearch endpointKind = iota
	endpointServer
	endpointTrailer
)

// Scraper is one logical scraping session. Cookies and headers are mutated
// per request, so a Scraper assumes at most one in-flight call at a time.
type Scraper struct {
	baseURL    string
	userAgent  string
	client     *http.Client
	pollClient *http.Client
	extractor  *VidTubeExtractor
	maxServers int
}

// New creates a session. With an empty baseURL the working origin is
// discovered by following redirects from the default one.
func New(baseURL string) *Scraper {
	page, poll := util.NewSessionClients()
	s := &Scraper{
		userAgent:  defaultUserAgent,
		client:     page,
		pollClient: poll,
		maxServers: defaultMaxServers,
	}
	s.extractor = NewVidTubeExtractor(page, s.userAgent)

	if baseURL != "" {
		s.baseURL = strings.TrimSuffix(baseURL, "/")
		return s
	}
	s.baseURL = strings.TrimSuffix(DefaultBaseURL, "/")
	if discovered := s.discoverDomain(); discovered != "" {
		s.baseURL = discovered
	}
	return s
}

// BaseURL returns the working origin of this session.
func (s *Scraper) BaseURL() string { return s.baseURL }

// UserAgent returns the user agent the session presents; players must send
// the same one for the resolved stream URLs to work.
func (s *Scraper) UserAgent() string { return s.userAgent }

// discoverDomain follows redirects from the default origin. The site hops
// domains regularly; wherever the default lands becomes the session base.
func (s *Scraper) discoverDomain() string {
	req, err := http.NewRequest(http.MethodGet, DefaultBaseURL, nil)
	if err != nil {
		return ""
	}
	s.decoratePageRequest(req)

	resp, err := s.client.Do(req)
	if err != nil {
		util.Debug("domain discovery failed", "error", err)
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	final := resp.Request.URL
	return strings.TrimSuffix(fmt.Sprintf("%s://%s", final.Scheme, final.Host), "/")
}

func (s *Scraper) endpointURL(kind endpointKind) string {
	base := strings.TrimSuffix(s.baseURL, "/")
	switch kind {
	case endpointSearch:
		return base + "/wp-content/themes/movies2023/Ajaxat/Searching.php"
	case endpointServer:
		return base + "/wp-content/themes/movies2023/Ajaxat/Single/Server.php"
	case endpointTrailer:
		return base + "/wp-content/themes/movies2023/Ajaxat/Home/LoadTrailer.php"
	}
	return ""
}

func (s *Scraper) decoratePageRequest(req *http.Request) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", s.baseURL)
}

func (s *Scraper) decorateAjaxRequest(req *http.Request, referer string) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Origin", s.baseURL)
	req.Header.Set("Referer", referer)
}

// fetchDocument GETs a page and parses it. The status code is returned
// alongside the error so callers can react to 404s specifically.
func (s *Scraper) fetchDocument(rawURL string) (*goquery.Document, int, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to create request")
	}
	s.decoratePageRequest(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, errors.Errorf("server returned: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "failed to parse HTML")
	}
	return doc, resp.StatusCode, nil
}

// Search queries the search endpoint and returns parsed hits, optionally
// filtered to one content type.
func (s *Scraper) Search(query string, contentType models.ContentType) ([]models.SearchHit, error) {
	form := url.Values{
		"search": {query},
		"type":   {"all"},
	}

	req, err := http.NewRequest(http.MethodPost, s.endpointURL(endpointSearch), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create search request")
	}
	s.decorateAjaxRequest(req, s.baseURL)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("search returned: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse search response")
	}

	var hits []models.SearchHit
	doc.Find(".Small--Box").Each(func(_ int, item *goquery.Selection) {
		hit, ok := parseSearchHit(item)
		if !ok {
			return
		}
		if contentType != "" && contentType != models.ContentUnknown && hit.Type != contentType {
			return
		}
		hits = append(hits, hit)
	})

	util.Debug("search finished", "query", query, "hits", len(hits))
	return hits, nil
}

// SearchMovies is Search filtered to movies.
func (s *Scraper) SearchMovies(query string) ([]models.SearchHit, error) {
	return s.Search(query, models.ContentMovie)
}

// SearchSeries is Search filtered to series.
func (s *Scraper) SearchSeries(query string) ([]models.SearchHit, error) {
	return s.Search(query, models.ContentSeries)
}

// SearchAnime is Search filtered to anime.
func (s *Scraper) SearchAnime(query string) ([]models.SearchHit, error) {
	return s.Search(query, models.ContentAnime)
}

// GetShowDetails fetches the full record for a show URL, dispatching to the
// movie or series path by URL keywords. Unrecognized URLs try the series
// path first and fall back to the movie path when no season data turns up.
func (s *Scraper) GetShowDetails(rawURL string) (*models.ShowDetails, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return nil, errors.Errorf("invalid show URL: %q", rawURL)
	}

	decoded := strings.ToLower(decode(rawURL))
	switch {
	case strings.Contains(decoded, "فيلم") || strings.Contains(decoded, "/movie/"):
		return s.GetMovieDetails(rawURL)
	case strings.Contains(decoded, "انمي") || strings.Contains(decoded, "/anime/"):
		return s.GetSeriesDetails(rawURL, models.ContentAnime)
	case strings.Contains(decoded, "مسلسل") || strings.Contains(decoded, "/series/"):
		return s.GetSeriesDetails(rawURL, models.ContentSeries)
	}

	details, err := s.GetSeriesDetails(rawURL, models.ContentSeries)
	if err == nil && details != nil && len(details.Seasons) > 0 {
		return details, nil
	}
	return s.GetMovieDetails(rawURL)
}

// GetMovieDetails parses a movie page and resolves its servers. When the
// page itself exposes no content id, the /watch/ variant is tried; it also
// often carries the quality tag the main page lacks.
func (s *Scraper) GetMovieDetails(rawURL string) (*models.ShowDetails, error) {
	doc, _, err := s.fetchDocument(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch movie page")
	}

	details := s.parseShowPage(doc, rawURL)
	details.Type = models.ContentMovie

	watchURL := normalizeWatchURL(strings.TrimSuffix(rawURL, "/"))
	movieID := extractContentID(doc)
	if movieID == "" {
		if watchDoc, _, err := s.fetchDocument(watchURL); err == nil {
			movieID = extractContentID(watchDoc)
			if details.Meta.Quality == "" {
				details.Meta.Quality = qualityFromDescription(watchDoc)
			}
		}
	}

	if movieID != "" {
		details.Servers = s.GetServers(movieID, watchURL)
	}
	return details, nil
}

// GetSeriesDetails parses a series or anime page into show details with a
// sorted season list.
func (s *Scraper) GetSeriesDetails(rawURL string, showType models.ContentType) (*models.ShowDetails, error) {
	doc, _, err := s.fetchDocument(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch series page")
	}

	details := s.parseShowPage(doc, rawURL)
	details.Type = showType

	seasonLinks := findSeasonLinks(doc)
	if len(seasonLinks) == 0 {
		// Single-season shows list episodes directly on the show page.
		seasonLinks = []string{rawURL}
	}

	seasons := make([]models.Season, 0, len(seasonLinks))
	for _, link := range seasonLinks {
		seasons = append(seasons, buildSeason(link))
	}
	sort.SliceStable(seasons, func(i, j int) bool {
		return seasons[i].Number < seasons[j].Number
	})
	details.Seasons = seasons

	return details, nil
}

// findSeasonLinks locates season URLs via the season-box grid, falling back
// to sniffing anchors with season markers in href, text or title.
func findSeasonLinks(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var links []string

	doc.Find(`div[class*="Small--Box"][class*="Season"]`).Each(func(_ int, box *goquery.Selection) {
		href := box.Find("a[href]").First().AttrOr("href", "")
		if href != "" && !seen[href] {
			seen[href] = true
			links = append(links, href)
		}
	})
	if len(links) > 0 {
		return links
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, "/series/") && !strings.Contains(href, "/anime/") {
			return
		}
		text := strings.ToLower(a.Text())
		title := strings.ToLower(a.AttrOr("title", ""))
		if strings.Contains(href, "الموسم") || strings.Contains(href, "season") ||
			strings.Contains(text, "season") || strings.Contains(title, "الموسم") {
			if !seen[href] {
				seen[href] = true
				links = append(links, href)
			}
		}
	})
	return links
}

func buildSeason(seasonURL string) models.Season {
	number := ExtractSeasonNumber(seasonURL)
	part := ExtractSeasonPart(seasonURL)
	return models.Season{
		Number:       number,
		Part:         part,
		DisplayLabel: seasonDisplayLabel(number, part),
		URL:          seasonURL,
	}
}

func seasonDisplayLabel(number int, part string) string {
	switch {
	case number >= models.FinalSeasonBase && part != "":
		return "Final Season " + part
	case number >= models.FinalSeasonBase:
		return "Final Season"
	case part != "":
		return fmt.Sprintf("Season %d %s", number, part)
	default:
		return fmt.Sprintf("Season %d", number)
	}
}

// parseShowPage combines the pure metadata parse with the trailer lookup,
// which needs the session.
func (s *Scraper) parseShowPage(doc *goquery.Document, pageURL string) *models.ShowDetails {
	details := parseShowMetadata(doc, pageURL)
	if dataURL := trailerDataURL(doc); dataURL != "" {
		if trailer := s.TrailerURL(pageURL, dataURL); trailer != "" {
			details.Meta.Trailer = trailer
		}
	}
	return details
}

// FetchSeasonEpisodes crawls a season's episode listing once. A populated
// season is returned as-is; the crawl result is stored on the caller's
// season so later calls are no-ops.
func (s *Scraper) FetchSeasonEpisodes(season *models.Season) ([]models.Episode, error) {
	if season == nil {
		return nil, errors.New("nil season")
	}
	if season.EpisodesResolved() || len(season.Episodes) > 0 {
		return season.Episodes, nil
	}
	if season.URL == "" {
		return nil, errors.New("season has no URL")
	}

	episodes, poster, err := s.crawlSeason(season.URL)
	if err != nil {
		return nil, err
	}
	if len(episodes) > 0 {
		season.ResolveEpisodes(episodes, poster)
	}
	return episodes, nil
}

// FetchEpisodeServers resolves the stream servers for an episode once. An
// empty first result is retried with a fresh session, which clears stale
// anti-bot cookie state.
func (s *Scraper) FetchEpisodeServers(episode *models.Episode) []models.StreamServer {
	if episode == nil {
		return nil
	}
	if episode.ServersResolved() || len(episode.Servers) > 0 {
		return episode.Servers
	}
	if episode.URL == "" {
		return nil
	}

	encoded := encodeURL(episode.URL)
	watchURL := normalizeWatchURL(encoded)

	contentID := s.resolveContentID(watchURL)
	if contentID == "" {
		contentID = s.resolveContentID(encoded)
	}
	if contentID == "" {
		util.Debug("no content id found", "url", episode.URL)
		return nil
	}

	servers := s.GetServers(contentID, watchURL)
	if len(servers) == 0 {
		util.Debug("empty server result, retrying with fresh session")
		fresh := New(s.baseURL)
		servers = fresh.GetServers(contentID, watchURL)
	}
	if len(servers) > 0 {
		episode.ResolveServers(servers)
	}
	return servers
}

// resolveContentID fetches a page and runs the content-id cascade over it.
func (s *Scraper) resolveContentID(rawURL string) string {
	doc, _, err := s.fetchDocument(rawURL)
	if err != nil {
		util.Debug("content id fetch failed", "url", rawURL, "error", err)
		return ""
	}
	return extractContentID(doc)
}

// TrailerURL asks the trailer endpoint for the embeddable trailer frame.
// A miss is returned as "".
func (s *Scraper) TrailerURL(pageURL, formURL string) string {
	form := url.Values{"href": {formURL}}

	req, err := http.NewRequest(http.MethodPost, s.endpointURL(endpointTrailer), strings.NewReader(form.Encode()))
	if err != nil {
		return ""
	}
	s.decorateAjaxRequest(req, pageURL)

	resp, err := s.client.Do(req)
	if err != nil {
		util.Debug("trailer request failed", "error", err)
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	src := strings.TrimSpace(doc.Find("iframe").First().AttrOr("src", ""))
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	return ""
}

// ExtractEmbed runs the VidTube extractor directly against an embed URL,
// using the session origin as the referer.
func (s *Scraper) ExtractEmbed(embedURL string) string {
	return s.extractor.Extract(embedURL, []string{s.baseURL})
}

// encodeURL percent-encodes the path and query of a scraped URL so Arabic
// slugs survive the round trip through the Ajax endpoints.
func encodeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return parsed.String()
}

// normalizeWatchURL appends the /watch/ segment the player pages live at.
func normalizeWatchURL(raw string) string {
	if raw == "" || strings.HasSuffix(raw, "/watch/") {
		return raw
	}
	if strings.HasSuffix(raw, "/") {
		return raw + "watch/"
	}
	return raw + "/watch/"
}
