package scraper

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/np4abdou/gocenima/internal/models"
	"github.com/np4abdou/gocenima/internal/util"
)

// maxEpisodePages caps a single season crawl.
const maxEpisodePages = 50

var (
	epMarkerRe      = regexp.MustCompile(`(?i)(?:الحلقة|episode|ep)[- ]?(\d+(?:\.\d+)?)`)
	specialMarkerRe = regexp.MustCompile(`(?i)(?:ova|special|movie|خاص)`)
	seasonTokenRe   = regexp.MustCompile(`(?i)(?:part|season|الجزء|الموسم)[- ]?\d+`)
)

// crawlSeason walks every listing page of a season and returns its episodes
// sorted ascending, plus the season poster read from the landing page.
//
// The "/list" URL variant is tried first since it exposes the full linear
// listing for long-running shows; a 404 on its first page permanently falls
// back to the plain season URL with ?page= parameters for this crawl.
func (s *Scraper) crawlSeason(seasonURL string) ([]models.Episode, string, error) {
	base := strings.TrimSuffix(seasonURL, "/")
	useList := !strings.HasSuffix(base, "/list")
	firstURL := base
	if useList {
		firstURL = base + "/list"
	}

	var all []models.Episode
	seen := make(map[string]bool)
	fallback := false
	page := 1

	for page <= maxEpisodePages {
		var current string
		switch {
		case page == 1 && fallback:
			current = base
		case page == 1:
			current = firstURL
		case fallback:
			current = fmt.Sprintf("%s/?page=%d", base, page)
		default:
			current = fmt.Sprintf("%s/?page=%d", firstURL, page)
		}

		doc, status, err := s.fetchDocument(current)
		if err != nil {
			if status == http.StatusNotFound && page == 1 && useList && !fallback {
				fallback = true
				continue
			}
			if page == 1 {
				// No partial result exists yet, so this one escalates.
				return nil, "", errors.Wrapf(err, "failed to fetch first episode page %s", current)
			}
			util.Debug("episode page fetch failed, stopping crawl", "page", page, "error", err)
			break
		}

		anchors := findEpisodeAnchors(doc)
		if len(anchors) == 0 {
			break
		}

		var pageEpisodes []models.Episode
		for _, anchor := range anchors {
			href, ok := anchor.Attr("href")
			if !ok || href == "" || seen[href] {
				continue
			}
			seen[href] = true
			if ep, ok := s.parseEpisodeLink(anchor, href); ok {
				pageEpisodes = append(pageEpisodes, ep)
			}
		}
		if len(pageEpisodes) == 0 {
			break
		}
		all = append(all, pageEpisodes...)

		next := doc.Find(".page-numbers.next")
		if next.Length() == 0 {
			next = doc.Find(fmt.Sprintf(`a[href*="page=%d"]`, page+1))
		}
		if next.Length() == 0 {
			break
		}
		page++
	}

	sortEpisodes(all)

	poster := s.fetchSeasonPoster(base + "/")
	return all, poster, nil
}

// findEpisodeAnchors locates episode links via an ordered selector cascade:
// the primary grid selector, a generic fallback inside the same container,
// heuristic sniffing over every anchor, and finally the season-grid layout.
func findEpisodeAnchors(doc *goquery.Document) []*goquery.Selection {
	sel := doc.Find(".allepcont .row > a")
	if sel.Length() == 0 {
		sel = doc.Find(".allepcont a")
	}
	if sel.Length() > 0 {
		return collectSelections(sel)
	}

	var anchors []*goquery.Selection
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if isEpisodeAnchor(a) {
			anchors = append(anchors, a)
		}
	})
	if len(anchors) > 0 {
		return anchors
	}

	return collectSelections(doc.Find(".Episodes--Seasons--Episodes a"))
}

func isEpisodeAnchor(a *goquery.Selection) bool {
	if a.Find(".epnum").Length() > 0 {
		return true
	}
	title := a.AttrOr("title", "")
	text := a.Text()
	href := strings.ToLower(a.AttrOr("href", ""))

	if strings.Contains(title, "الحلقة") || strings.Contains(text, "الحلقة") {
		return true
	}
	lowerTitle, lowerText := strings.ToLower(title), strings.ToLower(text)
	if strings.Contains(lowerTitle, "episode") || strings.Contains(lowerText, "episode") {
		return true
	}
	if strings.Contains(href, "episode") {
		return true
	}
	return strings.Contains(href, "watch") && a.HasClass("button")
}

func collectSelections(sel *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out
}

// parseEpisodeLink builds an Episode from an anchor. The episode number is
// resolved from the URL first (most reliable), then the title attribute,
// then the visible text, and finally a generic number search with part and
// season tokens stripped so "Part 2" never reads as episode 2.
func (s *Scraper) parseEpisodeLink(anchor *goquery.Selection, href string) (models.Episode, bool) {
	href = resolveURL(s.baseURL, href)
	if strings.Contains(href, "/category/") || strings.Contains(href, "/genre/") {
		return models.Episode{}, false
	}

	text := CleanText(anchor.Text())
	titleAttr := anchor.AttrOr("title", "")

	isSpecial := false
	specialType := ""
	if specialMarkerRe.MatchString(href) {
		isSpecial = true
		lowerHref := strings.ToLower(href)
		switch {
		case strings.Contains(lowerHref, "ova"):
			specialType = "OVA"
		case strings.Contains(lowerHref, "movie"):
			specialType = "Movie"
		default:
			specialType = "Special"
		}
	}

	number := ""
	for _, candidate := range []string{href, titleAttr, text} {
		if m := epMarkerRe.FindStringSubmatch(candidate); m != nil {
			number = m[1]
			break
		}
	}
	if number == "" {
		for _, candidate := range []string{titleAttr, text} {
			stripped := seasonTokenRe.ReplaceAllString(candidate, "")
			if m := decimalRe.FindString(stripped); m != "" {
				number = m
				break
			}
		}
	}

	var display string
	switch {
	case number == "" && isSpecial:
		number = specialType
		display = "[" + specialType + "]"
	case number == "":
		number = "0"
		display = "[No Number]"
	case specialType != "":
		display = specialType + " " + number
	default:
		display = number
	}

	title := CleanTitle(firstNonEmpty(text, titleAttr))
	if number != "" {
		wordRe, err := regexp.Compile(`\b` + regexp.QuoteMeta(number) + `\b`)
		if err == nil {
			title = CleanText(wordRe.ReplaceAllString(title, ""))
		}
	}

	return models.Episode{
		Number:        number,
		DisplayNumber: display,
		Title:         title,
		URL:           href,
		IsSpecial:     isSpecial,
	}, true
}

// sortEpisodes orders episodes ascending by numeric episode number, with
// special and non-numeric entries after all numbered ones, preserving page
// order among equals.
func sortEpisodes(episodes []models.Episode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodeSortKey(episodes[i]) < episodeSortKey(episodes[j])
	})
}

func episodeSortKey(e models.Episode) float64 {
	if e.IsSpecial {
		return episodeSortMax
	}
	return ParseEpisodeNumber(e.Number)
}

func (s *Scraper) fetchSeasonPoster(landingURL string) string {
	doc, _, err := s.fetchDocument(landingURL)
	if err != nil {
		util.Debug("season poster fetch failed", "url", landingURL, "error", err)
		return ""
	}
	img := doc.Find(`img[class*="poster"]`).First()
	if img.Length() == 0 {
		return ""
	}
	return img.AttrOr("data-src", img.AttrOr("src", ""))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
