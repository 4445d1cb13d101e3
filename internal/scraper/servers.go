package scraper

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/np4abdou/gocenima/internal/models"
	"github.com/np4abdou/gocenima/internal/util"
)

// defaultMaxServers caps how many candidate slots are polled per content id.
const defaultMaxServers = 10

// GetServers polls server slots 0..n-1 sequentially and returns as soon as
// one slot's embed deobfuscates into a direct stream URL. Only the first
// working server is returned; polling every slot would multiply latency for
// no benefit. Per-slot failures are swallowed, total failure is an empty
// slice, never an error.
func (s *Scraper) GetServers(contentID, referer string) []models.StreamServer {
	var servers []models.StreamServer

	for i := 0; i < s.maxServers; i++ {
		embedURL, err := s.fetchServerEmbed(contentID, i, referer)
		if err != nil {
			util.Debug("server slot failed", "slot", i, "error", err)
			continue
		}
		if embedURL == "" || !isEmbedHost(embedURL) {
			continue
		}

		referers := []string{s.baseURL, referer, embedURL}
		videoURL := s.extractor.Extract(embedURL, referers)
		if videoURL == "" {
			continue
		}

		servers = append(servers, models.StreamServer{
			Name:         fmt.Sprintf("VidTube Server %d", i+1),
			ServerNumber: i,
			EmbedURL:     embedURL,
			VideoURL:     videoURL,
		})
		break
	}

	return servers
}

// fetchServerEmbed asks the server-list endpoint for one slot and extracts
// the embed frame target from the response fragment.
func (s *Scraper) fetchServerEmbed(contentID string, slot int, referer string) (string, error) {
	form := url.Values{
		"id": {contentID},
		"i":  {strconv.Itoa(slot)},
	}

	req, err := http.NewRequest(http.MethodPost, s.endpointURL(endpointServer), strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "failed to create server request")
	}
	s.decorateAjaxRequest(req, referer)

	resp, err := s.pollClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "server slot request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("server returned: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse server response")
	}

	return strings.TrimSpace(doc.Find("iframe").First().AttrOr("src", "")), nil
}
