package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/np4abdou/gocenima/internal/models"
)

var (
	floatRe    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	yearRe     = regexp.MustCompile(`\d{4}`)
	descQualRe = regexp.MustCompile(`(?i)(?:بجودة|quality)\s+([A-Za-z0-9\-\.]+)`)
)

// qualityTokens are the markers that identify a listing-card line as a
// quality label rather than a genre or date.
var qualityTokens = []string{"1080P", "720P", "480P", "BLURAY", "WEB-DL", "WEBRIP", "HDCAM"}

// taxKeyMap translates the localized labels of the show facts table into
// canonical metadata keys. Movie and series pages use different labels for
// the same field.
var taxKeyMap = map[string]string{
	"قسم المسلسل":  "category",
	"قسم الفيلم":   "category",
	"نوع المسلسل":  "genres",
	"نوع الفيلم":   "genres",
	"النوع":        "genres",
	"جودة المسلسل": "quality",
	"جودة الفيلم":  "quality",
	"عدد الحلقات":  "episode_count",
	"توقيت المسلسل": "duration",
	"توقيت الفيلم":  "duration",
	"مدة الفيلم":    "duration",
	"موعد الصدور":   "release_year",
	"سنة الانتاج":   "release_year",
	"لغة المسلسل":   "language",
	"لغة الفيلم":    "language",
	"دولة المسلسل":  "country",
	"دولة الفيلم":   "country",
	"المخرجين":      "directors",
	"المخرج":        "directors",
	"بطولة":         "cast",
}

// classifyContent decides the content type from URL slug and title
// substrings. Anime is checked first: anime listings share the /series/
// URL namespace, so a series match alone is not conclusive.
func classifyContent(rawURL, title string) models.ContentType {
	decoded := strings.ToLower(decode(rawURL))
	lowerTitle := strings.ToLower(title)

	switch {
	case strings.Contains(decoded, "انمي") || strings.Contains(decoded, "/anime/") ||
		strings.Contains(title, "انمي") || strings.Contains(lowerTitle, "anime"):
		return models.ContentAnime
	case strings.Contains(decoded, "مسلسل") || strings.Contains(decoded, "/series/") ||
		strings.Contains(title, "مسلسل") || strings.Contains(lowerTitle, "series"):
		return models.ContentSeries
	case strings.Contains(decoded, "فيلم") || strings.Contains(decoded, "/movie/") ||
		strings.Contains(title, "فيلم") || strings.Contains(lowerTitle, "movie"):
		return models.ContentMovie
	}
	return models.ContentUnknown
}

// parseSearchHit turns one listing card into a SearchHit. A card with no
// link is discarded; every other field is optional.
func parseSearchHit(item *goquery.Selection) (models.SearchHit, bool) {
	link := item.Find("a").First()
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return models.SearchHit{}, false
	}

	title := ""
	for _, sel := range []string{".title", ".Title", "h3"} {
		if el := item.Find(sel).First(); el.Length() > 0 {
			title = CleanText(el.Text())
			break
		}
	}
	if title == "" {
		title = CleanText(link.AttrOr("title", ""))
	}
	if title == "" {
		return models.SearchHit{}, false
	}

	hit := models.SearchHit{
		Title:    CleanTitle(title),
		RawTitle: title,
		URL:      href,
		Type:     classifyContent(href, title),
	}

	var qualityCandidates []string
	if ribbon := item.Find(".ribbon").First(); ribbon.Length() > 0 {
		if q := CleanText(ribbon.Text()); q != "" {
			qualityCandidates = append(qualityCandidates, q)
		}
	}
	item.Find("ul.liList li").Each(func(_ int, li *goquery.Selection) {
		text := CleanText(li.Text())
		upper := strings.ToUpper(text)
		for _, token := range qualityTokens {
			if strings.Contains(upper, token) {
				qualityCandidates = append(qualityCandidates, text)
				break
			}
		}
		if li.Find(".fa-star").Length() > 0 || li.HasClass("imdb") {
			if m := floatRe.FindString(text); m != "" {
				if rating, err := strconv.ParseFloat(m, 64); err == nil {
					hit.Meta.Rating = rating
				}
			}
		}
	})
	// Prefer the longest candidate: "1080p BluRay" beats "1080p".
	for _, q := range qualityCandidates {
		if len(q) > len(hit.Meta.Quality) {
			hit.Meta.Quality = q
		}
	}

	if yearText := CleanText(item.Find(`span[class*="year"]`).First().Text()); yearText != "" {
		if m := yearRe.FindString(yearText); m != "" {
			hit.Meta.Year, _ = strconv.Atoi(m)
		}
	}

	if img := item.Find("img").First(); img.Length() > 0 {
		if poster := img.AttrOr("data-src", img.AttrOr("src", "")); poster != "" {
			hit.Meta.Poster = poster
		}
	}

	return hit, true
}

// parseShowMetadata extracts the common show-page fields. Every field is
// resolved through its own selector cascade and silently skipped when the
// page template does not carry it.
func parseShowMetadata(doc *goquery.Document, pageURL string) *models.ShowDetails {
	details := &models.ShowDetails{URL: pageURL}

	for _, sel := range []string{"h1.post-title", "h1", `h2[class*="title"]`} {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			details.RawTitle = CleanText(el.Text())
			break
		}
	}
	details.Title = CleanTitle(details.RawTitle)

	if img := doc.Find(`img[class*="poster"]`).First(); img.Length() > 0 {
		details.Meta.Poster = img.AttrOr("data-src", img.AttrOr("src", ""))
	}

	if el := doc.Find(`div[class*="synopsis"], div[class*="description"], div[class*="story"]`).First(); el.Length() > 0 {
		details.Meta.Synopsis = CleanText(el.Text())
	}

	if text := leafParentText(doc, "imdb"); text != "" {
		if m := floatRe.FindString(text); m != "" {
			details.Meta.Rating, _ = strconv.ParseFloat(m, 64)
		}
	}

	if text := leafParentText(doc, "سنة", "year"); text != "" {
		if m := yearRe.FindString(text); m != "" {
			details.Meta.Year, _ = strconv.Atoi(m)
		}
	}

	parseFactsTable(doc, details)

	if details.Meta.Quality == "" {
		desc := doc.Find(`meta[name="description"]`).AttrOr("content",
			doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
		if m := descQualRe.FindStringSubmatch(desc); m != nil {
			details.Meta.Quality = m[1]
		}
	}

	if len(details.Meta.Genres) == 0 {
		doc.Find(`a[href*="genre"]`).Each(func(_ int, a *goquery.Selection) {
			if g := CleanText(a.Text()); g != "" {
				details.Meta.Genres = append(details.Meta.Genres, g)
			}
		})
	}

	return details
}

// parseFactsTable reads the localized label -> value facts list found on
// show pages and maps known labels onto metadata fields.
func parseFactsTable(doc *goquery.Document, details *models.ShowDetails) {
	doc.Find("ul.RightTaxContent li").Each(func(_ int, li *goquery.Selection) {
		rawKey := strings.ReplaceAll(CleanText(li.Find("span").First().Text()), ":", "")
		key, known := taxKeyMap[rawKey]
		if !known {
			return
		}

		var links []string
		li.Find("a").Each(func(_ int, a *goquery.Selection) {
			if t := CleanText(a.Text()); t != "" {
				links = append(links, t)
			}
		})

		value := ""
		if len(links) > 0 {
			value = links[0]
		} else {
			value = CleanText(strings.ReplaceAll(strings.ReplaceAll(li.Text(), rawKey, ""), ":", ""))
		}

		switch key {
		case "category":
			details.Meta.Category = value
		case "genres":
			if len(links) > 0 {
				details.Meta.Genres = links
			} else if value != "" {
				details.Meta.Genres = []string{value}
			}
		case "cast":
			details.Meta.Cast = links
		case "directors":
			details.Meta.Directors = links
		case "quality":
			details.Meta.Quality = value
		case "episode_count":
			details.Meta.EpisodeCount = value
		case "duration":
			details.Meta.Duration = value
		case "language":
			details.Meta.Language = value
		case "country":
			details.Meta.Country = value
		case "release_year":
			if details.Meta.Year == 0 {
				if m := yearRe.FindString(value); m != "" {
					details.Meta.Year, _ = strconv.Atoi(m)
				}
			}
		}
	})
}

// leafParentText finds the first childless element whose text contains one
// of the markers (case-insensitive) and returns its parent's text. This
// mirrors locating a text node and reading its enclosing element.
func leafParentText(doc *goquery.Document, markers ...string) string {
	result := ""
	doc.Find("span, li, div, a, strong, em, b").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if el.Children().Length() > 0 {
			return true
		}
		text := strings.ToLower(el.Text())
		for _, marker := range markers {
			if strings.Contains(text, strings.ToLower(marker)) {
				result = CleanText(el.Parent().Text())
				return false
			}
		}
		return true
	})
	return result
}

// trailerDataURL returns the Ajax form URL of the trailer button, if the
// page has one.
func trailerDataURL(doc *goquery.Document) string {
	return doc.Find(`a[class*="trailer"]`).First().AttrOr("data-url", "")
}

// qualityFromDescription pulls the quality tag out of a watch page's meta
// description when the facts table did not carry one.
func qualityFromDescription(doc *goquery.Document) string {
	desc := doc.Find(`meta[name="description"]`).AttrOr("content", "")
	if m := descQualRe.FindStringSubmatch(desc); m != nil {
		return m[1]
	}
	return ""
}

// resolveURL makes a scraped href absolute against the session base.
func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
