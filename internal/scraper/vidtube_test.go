package scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/np4abdou/gocenima/internal/util"
)

func TestIsEmbedHost(t *testing.T) {
	assert.True(t, isEmbedHost("https://vidtube.one/embed-abc123.html"))
	assert.True(t, isEmbedHost("https://VIDTUBE.PRO/e/xyz"))
	assert.True(t, isEmbedHost("http://127.0.0.1:9999/e/vidtube.me/abc"))
	assert.False(t, isEmbedHost("https://streamtape.com/e/abc"))
	assert.False(t, isEmbedHost(""))
}

func TestUnpack(t *testing.T) {
	// Base-36 tokens 0..4 map onto the keyword list.
	keywords := []string{"jwplayer", "file", "https", "video", "mp4"}
	payload := `0.setup({1:"2://cdn.example.com/3.4"})`
	got := unpack(payload, 36, 5, keywords)
	assert.Equal(t, `jwplayer.setup({file:"https://cdn.example.com/video.mp4"})`, got)

	// A fully substituted script has no encoded tokens left, so unpacking
	// again is a no-op.
	assert.Equal(t, got, unpack(got, 36, 5, keywords))
}

func TestUnpackSkipsEmptyKeywords(t *testing.T) {
	// Empty keyword slots leave the encoded token in place.
	got := unpack("0 1", 36, 2, []string{"keep", ""})
	assert.Equal(t, "keep 1", got)
}

func TestUnpackHighIndexFirst(t *testing.T) {
	// Token "10" must be replaced before token "1" or "0" eat it.
	keywords := make([]string, 37)
	keywords[36] = "thirtysix"
	keywords[1] = "one"
	keywords[0] = "zero"
	got := unpack("10 1 0", 36, 37, keywords)
	assert.Equal(t, "thirtysix one zero", got)
}

func TestExtractFromPacker(t *testing.T) {
	body := `<script>eval(function(p,a,c,k,e,d){while(c--)if(k[c])p=p.replace(new RegExp('\\b'+c.toString(a)+'\\b','g'),k[c]);return p}('0.setup({1:"2://cdn.example.com/3.4"})',36,5,'jwplayer|file|https|video|mp4'.split('|')))</script>`
	assert.Equal(t, "https://cdn.example.com/video.mp4", extractFromPacker(body))
}

func TestExtractFromPackerNoMatch(t *testing.T) {
	assert.Equal(t, "", extractFromPacker("<html><body>nothing here</body></html>"))
}

func TestFindStreamURLPrefersMP4(t *testing.T) {
	script := `sources:[{file:"https://cdn.example.com/v.m3u8"},{file:"https://cdn.example.com/v.mp4"}]`
	assert.Equal(t, "https://cdn.example.com/v.mp4", findStreamURL(script))

	onlyHLS := `file:"https://cdn.example.com/v.m3u8"`
	assert.Equal(t, "https://cdn.example.com/v.m3u8", findStreamURL(onlyHLS))

	assert.Equal(t, "", findStreamURL("no urls at all"))
}

func TestFollowLinkChain(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/e/vidtube.pro/abc", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/file_l">240p</a>
			<a href="/file_h">720p</a>
		</body></html>`)
	})
	mux.HandleFunc("/file_h", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a class="btn btn-gradient submit-btn" href="https://cdn.vidtube.pro/video_h.mp4">Download</a>
		</body></html>`)
	})

	page, _ := util.NewSessionClients()
	x := NewVidTubeExtractor(page, defaultUserAgent)

	embedURL := server.URL + "/e/vidtube.pro/abc"
	got := x.Extract(embedURL, []string{server.URL})
	assert.Equal(t, "https://cdn.vidtube.pro/video_h.mp4", got)
}

func TestFollowLinkChainInlineFallback(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/e/vidtube.me/xyz", func(w http.ResponseWriter, r *http.Request) {
		// No quality-tier anchors, only the /d/ style download link.
		fmt.Fprint(w, `<html><body><a href="/d/xyz123">Download</a></body></html>`)
	})
	mux.HandleFunc("/d/xyz123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><script>var src = "https://cdn.vidtube.me/direct.mp4";</script></body></html>`)
	})

	page, _ := util.NewSessionClients()
	x := NewVidTubeExtractor(page, defaultUserAgent)

	got := x.Extract(server.URL+"/e/vidtube.me/xyz", nil)
	assert.Equal(t, "https://cdn.vidtube.me/direct.mp4", got)
}

func TestExtractRejectsUnknownHost(t *testing.T) {
	page, _ := util.NewSessionClients()
	x := NewVidTubeExtractor(page, defaultUserAgent)
	assert.Equal(t, "", x.Extract("https://streamtape.com/e/abc", nil))
}

func TestExtractDeadEmbedReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	page, _ := util.NewSessionClients()
	x := NewVidTubeExtractor(page, defaultUserAgent)
	got := x.Extract(server.URL+"/e/vidtube.one/dead", []string{server.URL})
	require.Equal(t, "", got)
}
