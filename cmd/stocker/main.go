package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/database"
	"github.com/dense-analysis/stocker/internal/route"
	"github.com/dense-analysis/stocker/internal/session"
	"github.com/dense-analysis/stocker/internal/template"
	"github.com/dense-analysis/stocker/pkg/lax"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.MustLoad()

	db, err := database.Connect(cfg.Database)

	if err != nil {
		log.Fatalf("Connection error: %s", err)
	}

	defer func() {
		_ = database.Close(db)
	}()

	session.Init(cfg.SecretKey, cfg.SecureCookies)
	template.Init()

	if log.IsLevelEnabled(log.DebugLevel) {
		lax.EnableDebugMode()
	}

	server := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           route.NewRouter(db, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %s", err)
		}
	}()

	log.WithField("addr", server.Addr).Info("Server started")
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server shut down failed: %+v", err)

		return
	}

	log.Info("Server shut down successfully")
}
