// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/nikokadi/kadi/internal/handlers"
	"github.com/nikokadi/kadi/internal/invite"
	"github.com/nikokadi/kadi/internal/kadi"
	"github.com/nikokadi/kadi/internal/middleware"
	"github.com/nikokadi/kadi/internal/session"
	"github.com/nikokadi/kadi/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := invite.Init(); err != nil {
		log.Fatalf("invite keys: %v", err)
	}

	ctx := context.Background()

	var roomStore kadi.Store
	if os.Getenv("KADI_STORE") == "postgres" {
		pg, err := store.ConnectPostgres(ctx)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pg.Close()
		roomStore = pg
	} else {
		roomStore = store.NewMemory()
	}

	var sessions kadi.Sessions
	if os.Getenv("REDIS_ADDR") != "" {
		rs, err := session.Connect(ctx)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		sessions = rs
	}

	hub := handlers.NewHub(logger)
	defer hub.Shutdown()

	engine := kadi.NewEngine(roomStore, sessions, hub, logger)
	srv := handlers.NewServer(engine, hub, logger)

	mux := http.NewServeMux()
	srv.Routes(mux)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, middleware.LogMiddleware(logger)(mux)); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
