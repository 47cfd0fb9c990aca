package main

import (
	"context"
	"log"
	"net/http"

	"adopt-meow/internal/adapters/cache"
	pg "adopt-meow/internal/adapters/storage/postgres"
	"adopt-meow/internal/domain/users"
	"adopt-meow/internal/platform/config"
	"adopt-meow/internal/platform/logger"
	"adopt-meow/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	appLog := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    "adopt-meow",
	})

	opts := router.Options{Logger: appLog}

	tokens := users.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	opts.AuthVerifier = tokens

	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Fatalf("postgres error: %v", err)
		}
		defer db.Close()
		opts.DB = db
		opts.UsersService = users.NewService(pg.NewUsersRepo(db), tokens)
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.Open(context.Background(), cfg.RedisURL)
		if err != nil {
			// El cache es advisory: sin Redis se sirve directo del store.
			appLog.Warn("redis unavailable, serving without listing cache",
				map[string]any{"error": err.Error()})
		} else {
			defer rdb.Close()
			opts.Redis = rdb
		}
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	appLog.Info("starting server", map[string]any{"addr": cfg.Addr()})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
