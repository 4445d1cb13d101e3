package scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverEndpointPath = "/wp-content/themes/movies2023/Ajaxat/Single/Server.php"

func TestGetServersStopsAtFirstWorkingSlot(t *testing.T) {
	var server *httptest.Server
	polled := map[string]int{}

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case serverEndpointPath:
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "4242", r.PostForm.Get("id"))
			assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))

			slot := r.PostForm.Get("i")
			polled[slot]++
			switch slot {
			case "0":
				// Slot 0 points at an unsupported host and is skipped.
				fmt.Fprint(w, `<iframe src="https://streamtape.com/e/abc"></iframe>`)
			case "1":
				fmt.Fprintf(w, `<iframe src="%s/e/vidtube.pro/slot1"></iframe>`, server.URL)
			default:
				fmt.Fprint(w, ``)
			}
		case "/e/vidtube.pro/slot1":
			fmt.Fprint(w, `<html><body><a href="/file_x">1080p</a></body></html>`)
		case "/file_x":
			fmt.Fprint(w, `<html><body><a class="btn btn-gradient submit-btn" href="https://cdn.vidtube.pro/slot1_x.mp4">Download</a></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := New(server.URL)
	servers := s.GetServers("4242", server.URL+"/watch/")

	require.Len(t, servers, 1)
	assert.Equal(t, 1, servers[0].ServerNumber)
	assert.Equal(t, "VidTube Server 2", servers[0].Name)
	assert.Equal(t, "https://cdn.vidtube.pro/slot1_x.mp4", servers[0].VideoURL)

	// Polling stops once a slot works.
	assert.Equal(t, 1, polled["0"])
	assert.Equal(t, 1, polled["1"])
	assert.Zero(t, polled["2"])
}

func TestGetServersAllSlotsDead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ``)
	}))
	defer server.Close()

	s := New(server.URL)
	assert.Empty(t, s.GetServers("999", server.URL))
}
