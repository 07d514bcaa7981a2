package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/manito/internal/auth"
	"github.com/mmynk/manito/internal/config"
	"github.com/mmynk/manito/internal/game"
	"github.com/mmynk/manito/internal/metrics"
	"github.com/mmynk/manito/internal/middleware"
	"github.com/mmynk/manito/internal/notify"
	"github.com/mmynk/manito/internal/service"
	"github.com/mmynk/manito/internal/storage/sqlite"
	"github.com/mmynk/manito/internal/web"
	"github.com/mmynk/manito/pkg/api"
	"github.com/mmynk/manito/pkg/logging"
)

const (
	releaseVersion = "0.1.0"

	shutdownTimeout = 10 * time.Second
)

func main() {
	logging.Setup()

	if err := config.LoadEnvFiles(); err != nil {
		slog.Error("Failed to load environment", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, releaseVersion, serve).ExecuteContext(ctx))
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.SetupWithLevel(cfg.Level())

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	broker := notify.NewBroker(store)
	broker.OnSubscribe = m.TrackWatchers

	authenticator := auth.NewPasswordAuthenticator(store, broker)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	rooms := game.NewRooms(store, broker)

	roomSvc := service.NewRoomService(service.RoomServiceDeps{
		Rooms:         rooms,
		Reveals:       game.NewRevealCoordinator(store, broker),
		Rematches:     game.NewRematchCoordinator(store, broker, rooms),
		Authenticator: authenticator,
		Watcher:       broker,
		Metrics:       m,
		BaseURL:       cfg.BaseURL,
	})
	authSvc := service.NewAuthService(authenticator, jwtManager, m)

	interceptors := connect.WithInterceptors(
		middleware.OptionalAuth(jwtManager),
		middleware.LoggingInterceptor(),
		middleware.MetricsInterceptor(m),
	)

	mux := web.NewRouter()

	// Register Connect services
	roomPath, roomHandler := api.NewRoomServiceHandler(roomSvc, interceptors)
	mux.Handler(http.MethodPost, roomPath+"*procedure", roomHandler)

	authPath, authHandler := api.NewAuthServiceHandler(authSvc, interceptors)
	mux.Handler(http.MethodPost, authPath+"*procedure", authHandler)

	web.Register(mux, web.Deps{
		Version:  releaseVersion,
		BaseURL:  cfg.BaseURL,
		Rooms:    store,
		Watcher:  broker,
		Gatherer: reg,
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		// Wrap with h2c for HTTP/2 without TLS (required for Connect streaming)
		Handler:           h2c.NewHandler(web.LogRequests(web.CORS(mux)), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       10 * time.Minute,
		// Open streams and feeds end when ctx is cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", cfg.BaseURL, "version", releaseVersion)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
