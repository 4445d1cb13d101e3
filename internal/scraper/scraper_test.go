package scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/np4abdou/gocenima/internal/models"
)

const searchEndpointPath = "/wp-content/themes/movies2023/Ajaxat/Searching.php"

func searchCard(href, title, quality string) string {
	return fmt.Sprintf(`<div class="Small--Box">
		<a href="%s" title="%s"><h3 class="title">%s</h3></a>
		<span class="year">2023</span>
		<ul class="liList">
			<li>%s</li>
			<li class="imdb"><i class="fa-star"></i> 8.9</li>
		</ul>
		<img data-src="https://cdn.example.com/poster.jpg">
	</div>`, href, title, title, quality)
}

func TestSearchParsesAndFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, searchEndpointPath, r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "one piece", r.PostForm.Get("search"))
		assert.Equal(t, "all", r.PostForm.Get("type"))

		fmt.Fprint(w, `<html><body>`+
			searchCard("https://topcinema.example/anime/one-piece/", "انمي One Piece مترجم", "1080p BluRay")+
			searchCard("https://topcinema.example/movie/one-piece-red/", "فيلم One Piece Red مترجم", "720p WEB-DL")+
			`</body></html>`)
	}))
	defer server.Close()

	s := New(server.URL)

	all, err := s.Search("one piece", "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "One Piece", all[0].Title)
	assert.Equal(t, "انمي One Piece مترجم", all[0].RawTitle)
	assert.Equal(t, models.ContentAnime, all[0].Type)
	assert.Equal(t, "1080p BluRay", all[0].Meta.Quality)
	assert.Equal(t, 8.9, all[0].Meta.Rating)
	assert.Equal(t, 2023, all[0].Meta.Year)
	assert.Equal(t, "https://cdn.example.com/poster.jpg", all[0].Meta.Poster)

	assert.Equal(t, models.ContentMovie, all[1].Type)

	anime, err := s.SearchAnime("one piece")
	require.NoError(t, err)
	require.Len(t, anime, 1)
	assert.Equal(t, "One Piece", anime[0].Title)
}

func TestGetSeriesDetailsSortsSeasons(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<h1 class="post-title">مسلسل Attack on Titan مترجم</h1>
			<img class="poster" src="https://cdn.example.com/aot.jpg">
			<div class="Small--Box Season"><a href="https://topcinema.example/series/aot-the-final-season-part-2/">Final</a></div>
			<div class="Small--Box Season"><a href="https://topcinema.example/series/aot-season-2/">S2</a></div>
			<div class="Small--Box Season"><a href="https://topcinema.example/series/aot-season-1/">S1</a></div>
		</body></html>`)
	}))
	defer server.Close()

	s := New(server.URL)
	details, err := s.GetSeriesDetails(server.URL+"/series/attack-on-titan/", models.ContentAnime)
	require.NoError(t, err)

	assert.Equal(t, "Attack on Titan", details.Title)
	assert.Equal(t, models.ContentAnime, details.Type)

	require.Len(t, details.Seasons, 3)
	assert.Equal(t, 1, details.Seasons[0].Number)
	assert.Equal(t, "Season 1", details.Seasons[0].DisplayLabel)
	assert.Equal(t, 2, details.Seasons[1].Number)

	// Final-season labels sort after every numbered season.
	assert.Equal(t, 102, details.Seasons[2].Number)
	assert.Equal(t, "Final Season Part 2", details.Seasons[2].DisplayLabel)
}

func TestGetSeriesDetailsSelfFallback(t *testing.T) {
	// Shows without season boxes list episodes on the show page itself.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>مسلسل Chernobyl مترجم</h1></body></html>`)
	}))
	defer server.Close()

	s := New(server.URL)
	showURL := server.URL + "/series/chernobyl/"
	details, err := s.GetSeriesDetails(showURL, models.ContentSeries)
	require.NoError(t, err)

	require.Len(t, details.Seasons, 1)
	assert.Equal(t, showURL, details.Seasons[0].URL)
	assert.Equal(t, 1, details.Seasons[0].Number)
}

func TestFetchSeasonEpisodesResolvesOnce(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/series/show-s1/list" {
			requests++
			fmt.Fprint(w, `<html><body>`+episodeGrid(
				anchorFor("/series/show-s1/episode-1/", "Episode 1"),
			)+`</body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body></body></html>`)
	}))
	defer server.Close()

	s := New(server.URL)
	season := &models.Season{Number: 1, URL: server.URL + "/series/show-s1/"}

	first, err := s.FetchSeasonEpisodes(season)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, season.EpisodesResolved())

	second, err := s.FetchSeasonEpisodes(season)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, requests)
}

func TestFetchEpisodeServersRetriesWithFreshSession(t *testing.T) {
	var server *httptest.Server
	polled := map[string]int{}

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case serverEndpointPath:
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "4242", r.PostForm.Get("id"))

			slot := r.PostForm.Get("i")
			polled[slot]++
			// Every slot comes back empty on the first pass; slot 0 only
			// yields its embed once the session is rebuilt.
			if slot == "0" && polled["0"] >= 2 {
				fmt.Fprintf(w, `<iframe src="%s/e/vidtube.pro/retry"></iframe>`, server.URL)
				return
			}
			fmt.Fprint(w, ``)
		case "/series/show/episode-1/watch/":
			fmt.Fprint(w, `<html><body><article class="post-4242"></article></body></html>`)
		case "/e/vidtube.pro/retry":
			fmt.Fprint(w, `<html><body><a href="/file_x">1080p</a></body></html>`)
		case "/file_x":
			fmt.Fprint(w, `<html><body><a class="btn btn-gradient submit-btn" href="https://cdn.vidtube.pro/retry_x.mp4">Download</a></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := New(server.URL)
	episode := &models.Episode{Number: "1", URL: server.URL + "/series/show/episode-1/"}

	servers := s.FetchEpisodeServers(episode)
	require.Len(t, servers, 1)
	assert.Equal(t, 0, servers[0].ServerNumber)
	assert.Equal(t, "https://cdn.vidtube.pro/retry_x.mp4", servers[0].VideoURL)
	assert.True(t, episode.ServersResolved())

	// One full empty pass, then the retry stops at slot 0.
	assert.Equal(t, 2, polled["0"])
	assert.Equal(t, 1, polled["1"])
	assert.Equal(t, 1, polled["9"])

	again := s.FetchEpisodeServers(episode)
	assert.Equal(t, servers, again)
	assert.Equal(t, 2, polled["0"])
}

func TestGetMovieDetailsWatchPageFallback(t *testing.T) {
	var server *httptest.Server
	polled := 0

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/inception/":
			// The movie page itself carries neither a content id nor a
			// quality tag.
			fmt.Fprint(w, `<html><body><h1 class="post-title">فيلم Inception مترجم</h1></body></html>`)
		case "/movie/inception/watch/":
			fmt.Fprint(w, `<html><head>
				<meta name="description" content="مشاهدة فيلم Inception بجودة 1080p مترجم اون لاين">
			</head><body><article class="post-777"></article></body></html>`)
		case serverEndpointPath:
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "777", r.PostForm.Get("id"))
			polled++
			if r.PostForm.Get("i") == "0" {
				fmt.Fprintf(w, `<iframe src="%s/e/vidtube.pro/movie"></iframe>`, server.URL)
				return
			}
			fmt.Fprint(w, ``)
		case "/e/vidtube.pro/movie":
			fmt.Fprint(w, `<html><body><a href="/file_h">720p</a></body></html>`)
		case "/file_h":
			fmt.Fprint(w, `<html><body><a class="btn btn-gradient submit-btn" href="https://cdn.vidtube.pro/movie_h.mp4">Download</a></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := New(server.URL)
	details, err := s.GetMovieDetails(server.URL + "/movie/inception/")
	require.NoError(t, err)

	assert.Equal(t, models.ContentMovie, details.Type)
	assert.Equal(t, "Inception", details.Title)
	assert.Equal(t, "1080p", details.Meta.Quality)

	require.Len(t, details.Servers, 1)
	assert.Equal(t, "https://cdn.vidtube.pro/movie_h.mp4", details.Servers[0].VideoURL)
	assert.Equal(t, 1, polled)
}

func TestGetShowDetailsUnknownURLFallsBackToMovie(t *testing.T) {
	// The slug carries no movie or series marker, so the series path runs
	// first; when it fails, the same URL is retried as a movie page.
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/view/mystery/" {
			fetches++
			if fetches == 1 {
				http.Error(w, "not yet", http.StatusForbidden)
				return
			}
			fmt.Fprint(w, `<html><body><h1 class="post-title">فيلم Mystery مترجم</h1></body></html>`)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	s := New(server.URL)
	details, err := s.GetShowDetails(server.URL + "/view/mystery/")
	require.NoError(t, err)

	assert.Equal(t, models.ContentMovie, details.Type)
	assert.Equal(t, "Mystery", details.Title)
	assert.Equal(t, 2, fetches)
}

func TestGetShowDetailsUnknownURLPrefersSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<h1 class="post-title">Dark مترجم</h1>
			<div class="Small--Box Season"><a href="https://topcinema.example/series/dark-season-1/">S1</a></div>
		</body></html>`)
	}))
	defer server.Close()

	s := New(server.URL)
	details, err := s.GetShowDetails(server.URL + "/view/dark/")
	require.NoError(t, err)

	assert.Equal(t, models.ContentSeries, details.Type)
	require.Len(t, details.Seasons, 1)
	assert.Equal(t, 1, details.Seasons[0].Number)
}

func TestGetShowDetailsRejectsMalformedURL(t *testing.T) {
	s := New("https://topcinema.example")
	_, err := s.GetShowDetails("not a url")
	require.Error(t, err)

	_, err = s.GetShowDetails("/relative/only")
	require.Error(t, err)
}

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		url   string
		title string
		want  models.ContentType
	}{
		{"https://x/anime/one-piece/", "One Piece", models.ContentAnime},
		{"https://x/series/breaking-bad/", "Breaking Bad", models.ContentSeries},
		{"https://x/movie/inception/", "Inception", models.ContentMovie},
		{"https://x/%D9%85%D8%B3%D9%84%D8%B3%D9%84-foo/", "Foo", models.ContentSeries},
		{"https://x/watch/thing/", "Thing", models.ContentUnknown},
		// Anime wins over the shared /series/ namespace.
		{"https://x/series/naruto/", "انمي Naruto", models.ContentAnime},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyContent(tt.url, tt.title), "url=%s", tt.url)
	}
}

func TestNormalizeWatchURL(t *testing.T) {
	assert.Equal(t, "https://x/show/watch/", normalizeWatchURL("https://x/show"))
	assert.Equal(t, "https://x/show/watch/", normalizeWatchURL("https://x/show/"))
	assert.Equal(t, "https://x/show/watch/", normalizeWatchURL("https://x/show/watch/"))
	assert.Equal(t, "", normalizeWatchURL(""))
}

func TestEncodeURLEscapesArabicPath(t *testing.T) {
	got := encodeURL("https://topcinema.example/مسلسل-test/")
	assert.Equal(t, "https://topcinema.example/%D9%85%D8%B3%D9%84%D8%B3%D9%84-test/", got)
}

func TestSeasonDisplayLabel(t *testing.T) {
	assert.Equal(t, "Season 3", seasonDisplayLabel(3, ""))
	assert.Equal(t, "Season 3 Part 2", seasonDisplayLabel(3, "Part 2"))
	assert.Equal(t, "Final Season", seasonDisplayLabel(100, ""))
	assert.Equal(t, "Final Season Part 2", seasonDisplayLabel(102, "Part 2"))
}

func TestEndpointURLs(t *testing.T) {
	s := New("https://topcinema.example")
	assert.Equal(t, "https://topcinema.example"+searchEndpointPath, s.endpointURL(endpointSearch))
	assert.Equal(t, "https://topcinema.example"+serverEndpointPath, s.endpointURL(endpointServer))
}
