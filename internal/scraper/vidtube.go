package scraper

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/np4abdou/gocenima/internal/util"
)

// embedHostMarkers identify the VidTube host family; embeds anywhere else
// are rejected before any extraction attempt.
var embedHostMarkers = []string{"vidtube.one", "vidtube.pro", "vidtube.me", "vidtube.to"}

var (
	// Matches the eval(function(p,a,c,k,e,d){...}return p}(...)) packer
	// invocation and captures payload, radix, token count and keyword list.
	packerRe = regexp.MustCompile(`(?s)return\s+p}\s*\(\s*['"](.*?)['"]\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*['"](.*?)['"]\.split\(['"]\|['"]\)\s*\)`)

	mp4AssignRe  = regexp.MustCompile(`file\s*:\s*["'](https?://[^"']+\.mp4[^"']*)["']`)
	m3u8AssignRe = regexp.MustCompile(`file\s*:\s*["'](https?://[^"']+\.m3u8[^"']*)["']`)
	inlineMP4Re  = regexp.MustCompile(`["'](https?://[^"']+\.mp4[^"']*)["']`)
)

// qualityTiers are the download-link suffixes in priority order.
var qualityTiers = []struct {
	suffix string
	label  string
}{
	{"_x", "1080p"},
	{"_h", "720p"},
	{"_n", "480p"},
	{"_l", "240p"},
}

// VidTubeExtractor recovers a direct stream URL from a VidTube embed page.
// vidtube.one pages hide it behind a packed script; the other hosts behind
// a quality-tier link chain. Any miss returns "", never an error: a dead
// embed just moves the server poller on to the next slot.
type VidTubeExtractor struct {
	client    *http.Client
	userAgent string
}

func NewVidTubeExtractor(client *http.Client, userAgent string) *VidTubeExtractor {
	return &VidTubeExtractor{client: client, userAgent: userAgent}
}

// isEmbedHost reports whether the embed URL belongs to the recognized
// host family.
func isEmbedHost(embedURL string) bool {
	lower := strings.ToLower(embedURL)
	for _, marker := range embedHostMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Extract tries each referer in priority order, then once without one.
func (x *VidTubeExtractor) Extract(embedURL string, referers []string) string {
	if !isEmbedHost(embedURL) {
		return ""
	}
	for _, ref := range referers {
		if ref == "" {
			continue
		}
		if videoURL := x.extract(embedURL, ref); videoURL != "" {
			return videoURL
		}
	}
	return x.extract(embedURL, "")
}

func (x *VidTubeExtractor) extract(embedURL, referer string) string {
	body, err := x.get(embedURL, referer)
	if err != nil {
		util.Debug("embed fetch failed", "url", embedURL, "error", err)
		return ""
	}

	parsed, err := url.Parse(embedURL)
	if err != nil {
		return ""
	}
	if strings.Contains(parsed.Hostname(), "vidtube.one") {
		return extractFromPacker(body)
	}
	return x.followLinkChain(embedURL, body, referer)
}

// extractFromPacker reverses the packer transform found in the embed page
// and scans the reconstructed script for the stream URL.
func extractFromPacker(body string) string {
	m := packerRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	radix, err := strconv.Atoi(m[2])
	if err != nil || radix < 2 || radix > 36 {
		return ""
	}
	count, err := strconv.Atoi(m[3])
	if err != nil {
		return ""
	}
	script := unpack(m[1], radix, count, strings.Split(m[4], "|"))
	return findStreamURL(script)
}

// unpack substitutes every radix-encoded token with its keyword. Iteration
// runs from the highest index down to zero: a higher index's encoding can
// be a substring of a lower one's, so the order is mandatory.
func unpack(payload string, radix, count int, keywords []string) string {
	for i := count - 1; i >= 0; i-- {
		if i >= len(keywords) || keywords[i] == "" {
			continue
		}
		token := strconv.FormatInt(int64(i), radix)
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(token) + `\b`)
		if err != nil {
			continue
		}
		payload = re.ReplaceAllString(payload, keywords[i])
	}
	return payload
}

// findStreamURL prefers a direct .mp4 assignment over .m3u8 when the
// unpacked script carries both.
func findStreamURL(script string) string {
	if m := mp4AssignRe.FindStringSubmatch(script); m != nil {
		return m[1]
	}
	if m := m3u8AssignRe.FindStringSubmatch(script); m != nil {
		return m[1]
	}
	return ""
}

// followLinkChain picks the best quality-tier download anchor on the embed
// page, follows it, and reads the stream URL off the download page.
func (x *VidTubeExtractor) followLinkChain(embedURL, body, referer string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}

	nextPath := ""
	for _, tier := range qualityTiers {
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if href := a.AttrOr("href", ""); strings.HasSuffix(href, tier.suffix) {
				nextPath = href
				util.Debug("picked download tier", "quality", tier.label, "href", href)
				return false
			}
			return true
		})
		if nextPath != "" {
			break
		}
	}
	if nextPath == "" {
		currentPath := ""
		if parsed, err := url.Parse(embedURL); err == nil {
			currentPath = parsed.Path
		}
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href := a.AttrOr("href", "")
			if strings.Contains(href, "/d/") && href != currentPath {
				nextPath = href
				return false
			}
			return true
		})
	}
	if nextPath == "" {
		return ""
	}

	nextURL := resolveURL(embedURL, nextPath)
	downloadBody, err := x.get(nextURL, referer)
	if err != nil {
		util.Debug("download page fetch failed", "url", nextURL, "error", err)
		return ""
	}

	downloadDoc, err := goquery.NewDocumentFromReader(strings.NewReader(downloadBody))
	if err == nil {
		if href := downloadDoc.Find("a.btn.btn-gradient.submit-btn").AttrOr("href", ""); href != "" {
			return href
		}
	}
	if m := inlineMP4Re.FindStringSubmatch(downloadBody); m != nil {
		return m[1]
	}
	return ""
}

func (x *VidTubeExtractor) get(rawURL, referer string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", x.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if referer != "" {
		req.Header.Set("Referer", referer)
		if parsed, err := url.Parse(referer); err == nil && parsed.Scheme != "" && parsed.Host != "" {
			req.Header.Set("Origin", parsed.Scheme+"://"+parsed.Host)
		}
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("server returned: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
