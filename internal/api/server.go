package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/np4abdou/gocenima/internal/models"
	"github.com/np4abdou/gocenima/internal/scraper"
	"github.com/np4abdou/gocenima/internal/util"
)

// Handler serves the REST facade. Browsing endpoints share one session;
// stream resolution builds a fresh one per request since stale cookie state
// is the usual cause of empty server lists.
type Handler struct {
	scraper *scraper.Scraper
}

func NewHandler(s *scraper.Scraper) *Handler {
	return &Handler{scraper: s}
}

// NewRouter wires all routes onto a fresh mux router.
func NewRouter(s *scraper.Scraper) *mux.Router {
	h := NewHandler(s)
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/search", h.handleSearch).Methods("GET")
	r.HandleFunc("/show/details", h.handleShowDetails).Methods("GET")
	r.HandleFunc("/season/episodes", h.handleSeasonEpisodes).Methods("GET")
	r.HandleFunc("/stream/resolve", h.handleResolveStream).Methods("GET")
	r.HandleFunc("/vidtube/extract", h.handleExtract).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		util.Debug("response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"domain": h.scraper.BaseURL(),
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	contentType := models.ContentType(r.URL.Query().Get("type"))
	switch contentType {
	case "", models.ContentMovie, models.ContentSeries, models.ContentAnime:
	default:
		writeError(w, http.StatusBadRequest, "type must be movie, series or anime")
		return
	}

	hits, err := h.scraper.Search(query, contentType)
	if err != nil {
		util.Error("search failed", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, transformSearchHit(hit))
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleShowDetails(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter url")
		return
	}

	details, err := h.scraper.GetShowDetails(rawURL)
	if err != nil {
		util.Error("show details failed", "url", rawURL, "error", err)
		writeError(w, http.StatusNotFound, "show not found")
		return
	}
	writeJSON(w, http.StatusOK, transformShowDetails(details))
}

func (h *Handler) handleSeasonEpisodes(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter url")
		return
	}

	season := &models.Season{URL: rawURL}
	episodes, err := h.scraper.FetchSeasonEpisodes(season)
	if err != nil {
		util.Error("episode crawl failed", "url", rawURL, "error", err)
		writeError(w, http.StatusBadGateway, "episode listing failed")
		return
	}

	out := make([]EpisodeResponse, 0, len(episodes))
	for _, ep := range episodes {
		out = append(out, transformEpisode(ep))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleResolveStream(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter url")
		return
	}

	fresh := scraper.New(h.scraper.BaseURL())
	episode := &models.Episode{URL: rawURL}
	servers := fresh.FetchEpisodeServers(episode)
	if len(servers) == 0 {
		writeError(w, http.StatusNotFound, "no working servers found")
		return
	}

	selected := servers[0]
	referer := selected.EmbedURL
	if referer == "" {
		referer = fresh.BaseURL()
	}
	ua := fresh.UserAgent()

	writeJSON(w, http.StatusOK, StreamSource{
		ServerNumber: selected.ServerNumber,
		EmbedURL:     selected.EmbedURL,
		VideoURL:     selected.VideoURL,
		Headers: map[string]string{
			"Referer":    referer,
			"User-Agent": ua,
		},
		MPVCommand: MPVCommand(selected.VideoURL, referer, ua),
	})
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	embedURL := r.URL.Query().Get("url")
	if embedURL == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter url")
		return
	}

	videoURL := h.scraper.ExtractEmbed(embedURL)
	if videoURL == "" {
		writeError(w, http.StatusNotFound, "could not extract video")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"video_url": videoURL})
}
