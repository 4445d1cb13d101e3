package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/np4abdou/gocenima/internal/appflow"
	"github.com/np4abdou/gocenima/internal/models"
	"github.com/np4abdou/gocenima/internal/scraper"
	"github.com/np4abdou/gocenima/internal/util"
	"github.com/np4abdou/gocenima/internal/version"
)

func main() {
	startAll := time.Now()

	versionFlag := flag.Bool("version", false, "show version information")
	debugFlag := flag.Bool("debug", false, "enable debug mode")
	helpFlag := flag.Bool("help", false, "show help message")
	altHelpFlag := flag.Bool("h", false, "show help message")
	typeFlag := flag.String("type", "", "restrict search to movie, series or anime")

	flag.Parse()

	if *versionFlag || version.HasVersionArg() {
		version.ShowVersion()
		return
	}

	if *helpFlag || *altHelpFlag {
		util.Helper()
		return
	}

	util.SetDebugMode(*debugFlag)
	util.InitLogger()

	contentType := models.ContentType(*typeFlag)
	switch contentType {
	case "", models.ContentMovie, models.ContentSeries, models.ContentAnime:
	default:
		log.Fatalln("invalid -type, must be movie, series or anime")
	}

	query, err := util.GetSearchQuery()
	if err != nil {
		log.Fatalln(util.ErrorHandler(err))
	}

	s := scraper.New("")
	util.Debugf("[PERF] session ready on %s in %v", s.BaseURL(), time.Since(startAll))

	hit := appflow.SearchShow(s, query, contentType)
	details := appflow.FetchShowDetails(s, hit)

	if details.Type == models.ContentMovie {
		appflow.PlayMovie(s, details)
		return
	}

	season := appflow.SelectSeason(details)
	episode := appflow.GetSeasonEpisodes(s, season)

	title := details.Title
	if episode.Title != "" {
		title = fmt.Sprintf("%s - Episode %s", details.Title, episode.DisplayNumber)
	}
	appflow.ResolveAndPlay(s, episode, title)
}
