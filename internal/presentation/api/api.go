// Package api mounts the HTTP surface and owns the server lifecycle.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hilthontt/retrochat/internal/infrastructure/configs"
	"github.com/hilthontt/retrochat/internal/infrastructure/logging"
	"github.com/hilthontt/retrochat/internal/infrastructure/metrics"
	"github.com/hilthontt/retrochat/internal/infrastructure/ratelimiter"
	auditHandler "github.com/hilthontt/retrochat/internal/presentation/handler/audit"
	healthHandler "github.com/hilthontt/retrochat/internal/presentation/handler/health"
	messagesHandler "github.com/hilthontt/retrochat/internal/presentation/handler/messages"
	roomHandler "github.com/hilthontt/retrochat/internal/presentation/handler/rooms"
	"github.com/hilthontt/retrochat/internal/presentation/ws"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Application struct {
	config          *configs.Config
	roomHandler     *roomHandler.Handler
	messagesHandler *messagesHandler.Handler
	healthHandler   *healthHandler.Handler
	auditHandler    *auditHandler.Handler
	wsHandler       *ws.Handler
	logger          logging.Logger
	ratelimiter     ratelimiter.Limiter
}

func NewApplication(
	config *configs.Config,
	roomHandler *roomHandler.Handler,
	messagesHandler *messagesHandler.Handler,
	healthHandler *healthHandler.Handler,
	auditHandler *auditHandler.Handler,
	wsHandler *ws.Handler,
	logger logging.Logger,
	limiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:          config,
		roomHandler:     roomHandler,
		messagesHandler: messagesHandler,
		healthHandler:   healthHandler,
		auditHandler:    auditHandler,
		wsHandler:       wsHandler,
		logger:          logger,
		ratelimiter:     limiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(metrics.Middleware)
	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", app.roomHandler.CreateRoomHandler)
			r.Get("/{code}", app.roomHandler.GetRoomHandler)
			r.Post("/{code}/join", app.roomHandler.JoinRoomHandler)
			r.Post("/{code}/leave", app.roomHandler.LeaveRoomHandler)
			r.Get("/{code}/members", app.roomHandler.ListMembersHandler)
			r.Get("/{code}/requests", app.roomHandler.ListJoinRequestsHandler)

			r.Post("/{code}/messages", app.messagesHandler.CreateNewMessageHandler)
			r.Get("/{code}/messages", app.messagesHandler.GetHistoryHandler)

			r.Get("/{code}/subscribe", app.wsHandler.SubscribeHandler)

			if app.auditHandler != nil {
				r.Get("/{code}/audit", app.auditHandler.GetRoomAuditHandler)
			}
		})

		r.Post("/requests/{requestId}/decision", app.roomHandler.DecideJoinRequestHandler)

		if app.auditHandler != nil {
			r.Get("/audit", app.auditHandler.QueryAuditHandler)
			r.Delete("/audit", app.auditHandler.PurgeAuditHandler)
		}

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Handle("/metrics", metrics.Handler())

	if app.config.Tracing.Enabled {
		return otelhttp.NewHandler(r, "retrochat.http")
	}

	return r
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		healthHandler.SetHealthy(false)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			logging.ErrorMessage: s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		logging.Path: srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		logging.Path: srv.Addr,
	})

	return nil
}
