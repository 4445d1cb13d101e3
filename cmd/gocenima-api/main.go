package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/np4abdou/gocenima/internal/api"
	"github.com/np4abdou/gocenima/internal/scraper"
	"github.com/np4abdou/gocenima/internal/util"
	"github.com/np4abdou/gocenima/internal/version"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	debugFlag := flag.Bool("debug", false, "enable debug mode")
	flag.Parse()

	util.SetDebugMode(*debugFlag)
	util.InitLogger()

	s := scraper.New("")
	router := api.NewRouter(s)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	util.Info("gocenima API listening", "addr", *addr, "domain", s.BaseURL(), "version", version.Version)
	if err := srv.ListenAndServe(); err != nil {
		util.Fatal("server stopped", "error", err)
	}
}
