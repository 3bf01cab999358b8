package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrymd/webradio-sub000/internal/config"
	"github.com/dimitrymd/webradio-sub000/internal/geo"
	"github.com/dimitrymd/webradio-sub000/internal/httpapi"
	"github.com/dimitrymd/webradio-sub000/internal/playlist"
	"github.com/dimitrymd/webradio-sub000/internal/station"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	cursor, err := playlist.LoadOrScan(cfg.MusicDir)
	if err != nil {
		log.Fatalf("playlist: %v", err)
	}
	log.Printf("playlist: %d tracks loaded from %s", cursor.Len(), cfg.MusicDir)

	resolver := geo.New(cfg.GeoIPDBPath, cfg.GeoIPSalt)
	defer resolver.Close()

	st := station.New(cfg, cursor)
	st.Start()

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: httpapi.New(cfg, st, cursor, resolver).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("webradio: listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("httpapi: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("webradio: shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("httpapi: shutdown error: %v", err)
	}

	st.Stop()
	log.Printf("webradio: stopped")
}
