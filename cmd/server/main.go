package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"youareloved-web/internal/config"
	"youareloved-web/internal/enrollapi"
	"youareloved-web/internal/i18n"
	"youareloved-web/internal/logging"
	"youareloved-web/internal/server"
	"youareloved-web/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	gin.SetMode(cfg.GinMode)

	catalog, err := i18n.Default()
	if err != nil {
		log.Fatal(err)
	}

	api, err := enrollapi.New(enrollapi.Options{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout})
	if err != nil {
		log.Fatal(err)
	}

	st := store.NewWithOptions(store.Options{TTL: cfg.SessionTTL, MaxSessions: cfg.SessionMax})
	go st.RunJanitor(context.Background(), 10*time.Minute)

	router, err := server.NewRouter(server.Deps{
		Config:  cfg,
		Store:   st,
		API:     api,
		APIHost: api.Host(),
		Catalog: catalog,
		Log:     logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	logger.Info(ctx, "listening", "addr", fmt.Sprintf(":%d", cfg.Port), "api", cfg.APIBaseURL, "tls", cfg.TLSEnabled())
	log.Fatal(server.Run(cfg, server.NewHandler(cfg, catalog, router)))
}
