// The sync server exposes the remote store over HTTP:
//
//	PUT    /api/sync/entities/{type}/{id}   # upsert full snapshot (idempotent)
//	DELETE /api/sync/entities/{type}/{id}   # delete by id
//	GET    /api/sync/entities/{type}/{id}   # single row, tombstones included
//	GET    /api/sync/entities/{type}        # rows updated since ?since=
//	GET    /api/health                      # reachability probe
package api

import (
	entityAPI "studiosync/internal/app/server/api/http/entity"
	healthAPI "studiosync/internal/app/server/api/http/health"
	"studiosync/internal/app/server/api/http/middleware"
	"studiosync/internal/app/server/api/http/middleware/logger"
	"studiosync/internal/domain/entity"
	"studiosync/internal/infrastructure/storage/postgres"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

type Handlers struct {
	Health *healthAPI.Handler
	Entity *entityAPI.Handler
}

// New builds a *chi.Mux with all operations registered through huma.
func New(storage *postgres.Storage, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("StudioSync API", "1.0.0")
	API := humachi.New(mux, config)

	h := handlers(storage, log)
	h.Health.SetupRoutes(API)
	h.Entity.SetupRoutes(API)

	return mux
}

func handlers(storage *postgres.Storage, log *slog.Logger) *Handlers {
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	entityRepo := postgres.NewEntityRepository(storage.Pool(), log)
	entityService := entity.NewService(entityRepo, log)
	middlewares.Add(loggerMW.Middleware())
	entityHandler := entityAPI.NewHandler(entityService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Entity: entityHandler,
	}
}
