package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/expertbooking/api"
	"github.com/Domenick1991/expertbooking/config"
	"github.com/Domenick1991/expertbooking/internal/logger"
	"github.com/Domenick1991/expertbooking/internal/metrics"
	"github.com/Domenick1991/expertbooking/internal/realtime"
	"github.com/Domenick1991/expertbooking/internal/service/booking"
	"github.com/Domenick1991/expertbooking/internal/service/experts"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services are the collaborators the HTTP surface is built from.
type Services struct {
	Experts  experts.ExpertUseCase
	Bookings booking.BookingUseCase
	Realtime realtime.Channel
	Metrics  *metrics.Metrics
	Checks   map[string]api.Pinger
}

// NewRouter mounts the REST API under /api next to /healthz and /metrics.
func NewRouter(cfg *config.Config, svc Services, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == logger.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if svc.Metrics != nil {
		router.Use(logger.GinMiddleware(log, svc.Metrics))
		router.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))
	} else {
		router.Use(logger.GinMiddleware(log, nil))
	}
	api.NewHealthHandler(svc.Checks).Register(router)

	group := router.Group("/api")
	expertsGroup := group.Group("/experts")
	api.NewExpertHandler(svc.Experts, log).Register(expertsGroup)
	if svc.Realtime != nil {
		api.NewEventHandler(svc.Realtime, cfg.Realtime.KeepAlive(), log).Register(expertsGroup)
	}
	api.NewBookingHandler(svc.Bookings, log).Register(group.Group("/bookings"))

	return router
}

// Run serves the router and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, log *zap.Logger) error {
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, svc, log),
		ReadHeaderTimeout: 10 * time.Second,
		// Open event streams end with ctx instead of holding Shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Address))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http %s: %w", cfg.HTTP.Address, err)
	case <-ctx.Done():
		timeout := time.Duration(cfg.HTTP.ShutdownSeconds) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
