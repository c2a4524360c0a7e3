package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/studyparty/backend/internal/bus"
	"github.com/studyparty/backend/internal/config"
	"github.com/studyparty/backend/internal/httpapi"
	"github.com/studyparty/backend/internal/lobby"
	"github.com/studyparty/backend/internal/rounds"
	"github.com/studyparty/backend/internal/store"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()

	var st store.Store = store.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pg, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("open store", zap.Error(err))
		}
		st = pg
	}

	b := bus.New()
	reg := lobby.NewRegistry(st, b, log)
	runner := rounds.NewRunner(rounds.StaticGenerator{}, b, log)

	handler := httpapi.SetupRoutes(reg, b, runner, log, cfg.AllowedOrigins, cfg.TransitionGrace)

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
