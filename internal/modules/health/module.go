package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"sentinel_bot/internal/modules/config"
	"sentinel_bot/internal/modules/health/service"
	"sentinel_bot/internal/runner"
)

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			func(sup *runner.Supervisor) service.Sessions { return sup },
			service.NewRouter,
		),
		fx.Invoke(RunHTTP),
	)
}

// RunHTTP serves the probes. Readiness flips once every other start hook has run.
func RunHTTP(lc fx.Lifecycle, cfg *config.Config, state *service.State, router *gin.Engine, log *zap.Logger) {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Service.HealthAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("health server", zap.Error(err))
				}
			}()
			log.Info("health server listening", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}
