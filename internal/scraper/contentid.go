package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The numeric content identifier needed for server-list queries moves
// around between page templates, so resolution is an ordered list of
// strategies tried until one yields a digit sequence.
var contentIDStrategies = []func(*goquery.Document) string{
	idFromServerList,
	idFromAnyDataID,
	idFromPostClass,
	idFromInlineScripts,
	idFromShortlink,
	idFromPlayerDiv,
}

var (
	postClassRe  = regexp.MustCompile(`^post-(\d+)$`)
	idAssignRe   = regexp.MustCompile(`id["']?\s*[:=]\s*["']?(\d+)`)
	shortParamRe = regexp.MustCompile(`p=(\d+)`)
	postIDKeyRe  = regexp.MustCompile(`"post_id"\s*:\s*(\d+)`)
	postIDVarRe  = regexp.MustCompile(`var\s+post_id\s*=\s*(\d+)`)
)

// extractContentID runs the strategy cascade over a parsed document and
// returns the first identifier found, or "".
func extractContentID(doc *goquery.Document) string {
	for _, strategy := range contentIDStrategies {
		if id := strategy(doc); id != "" {
			return id
		}
	}
	return ""
}

// idFromServerList reads data-id off the known server-list containers, the
// most reliable location on movie watch pages.
func idFromServerList(doc *goquery.Document) string {
	id := ""
	for _, sel := range []string{"ul.servers-list li", ".server--item", "li[data-server]"} {
		doc.Find(sel).EachWithBreak(func(_ int, li *goquery.Selection) bool {
			if v, ok := li.Attr("data-id"); ok && v != "" {
				id = v
				return false
			}
			return true
		})
		if id != "" {
			return id
		}
	}
	return ""
}

func idFromAnyDataID(doc *goquery.Document) string {
	id := ""
	doc.Find("[data-id]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if v, ok := el.Attr("data-id"); ok && isDigits(v) {
			id = v
			return false
		}
		return true
	})
	return id
}

// idFromPostClass finds the WordPress "post-NNNN" class token.
func idFromPostClass(doc *goquery.Document) string {
	id := ""
	doc.Find(`[class*="post-"]`).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		for _, class := range strings.Fields(el.AttrOr("class", "")) {
			if m := postClassRe.FindStringSubmatch(class); m != nil {
				id = m[1]
				return false
			}
		}
		return true
	})
	return id
}

func idFromInlineScripts(doc *goquery.Document) string {
	id := ""
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		body := script.Text()
		if body == "" {
			return true
		}
		for _, re := range []*regexp.Regexp{idAssignRe, shortParamRe, postIDKeyRe, postIDVarRe} {
			if m := re.FindStringSubmatch(body); m != nil {
				id = m[1]
				return false
			}
		}
		return true
	})
	return id
}

func idFromShortlink(doc *goquery.Document) string {
	href, ok := doc.Find(`link[rel="shortlink"]`).Attr("href")
	if !ok {
		return ""
	}
	if m := shortParamRe.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

func idFromPlayerDiv(doc *goquery.Document) string {
	return doc.Find("#play").AttrOr("data-id", "")
}
