package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopsync/internal/api"
	"shopsync/internal/cartfav"
	"shopsync/internal/config"
	apphttp "shopsync/internal/http"
	"shopsync/internal/kv"
	filestore "shopsync/internal/kv/file"
	"shopsync/internal/kv/memory"
	"shopsync/internal/kv/postgres"
	"shopsync/internal/notify"
	"shopsync/internal/orderwatch"
	"shopsync/internal/secretbox"
	"shopsync/internal/session"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	state := openStateStore(cfg)

	var box *secretbox.Box
	if cfg.TokenEncryptionKey != "" {
		b, err := secretbox.New(cfg.TokenEncryptionKey)
		if err != nil {
			log.Fatalf("token encryption: %v", err)
		}
		box = b
	}

	sess := session.NewManager(state, box)
	backend := api.NewClient(cfg.APIBaseURL, cfg.APITimeout, sess)
	cart := cartfav.NewStore(state)
	center := notify.NewCenter(backend, sess, cfg.SystemMessageTTL)
	watcher := orderwatch.NewWatcher(backend, state, center, cfg.OrderPollInterval, cfg.OrderPollInitialDelay)

	pollCtx, stopPolling := context.WithCancel(context.Background())
	go center.Run(pollCtx, cfg.NotifyPollInterval)
	go watcher.Run(pollCtx)

	srv := apphttp.NewServer(cfg, sess, backend, cart, center, watcher)
	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("shopsync gateway listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	stopPolling()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// openStateStore selects the client-state backend, falling back from
// postgres to the file store and finally to memory.
func openStateStore(cfg config.Config) kv.Store {
	if cfg.StoreMode == "postgres" && cfg.DatabaseURL != "" {
		st, err := postgres.NewStore(cfg.DatabaseURL)
		if err == nil {
			return st
		}
		log.Printf("postgres state store unavailable, falling back to file store: %v", err)
	}
	if cfg.StoreMode != "memory" {
		st, err := filestore.NewStore(cfg.StatePath)
		if err == nil {
			return st
		}
		log.Printf("file state store unavailable, falling back to memory store: %v", err)
	}
	return memory.NewStore()
}
