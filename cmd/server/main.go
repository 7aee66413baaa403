package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"coinwatch/internal/app"
	"coinwatch/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err)
	}
	log, err := cfg.Log.Logger()
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("assembling service: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A failed warmup only means the first search loads the map itself.
	warmCtx, cancelWarm := context.WithTimeout(ctx, cfg.Server.RequestTimeout())
	if err := a.Service.Warmup(warmCtx); err != nil {
		log.WithError(err).Warn("warmup failed")
	}
	cancelWarm()

	go reloadOnHangup(ctx, a, log)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newHandler(cfg, a, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// newHandler wraps the router in the shared HTTP middleware.
func newHandler(cfg config.Config, a *app.App, log logrus.FieldLogger) http.Handler {
	s := &server{
		svc:            a.Service,
		log:            log.WithField("component", "server"),
		debounce:       cfg.Search.Debounce(),
		searchLimit:    cfg.Search.MaxResults,
		requestTimeout: cfg.Server.RequestTimeout(),
		upgrader:       newUpgrader(),
	}
	return withJSONHeaders(withGzip(recoverPanic(s.log, limitBody(cfg.Server.MaxBodyBytes, newRouter(s)))))
}

// reloadOnHangup refetches the identifier map on SIGHUP.
func reloadOnHangup(ctx context.Context, a *app.App, log logrus.FieldLogger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := a.Service.ReloadIndex(ctx); err != nil {
				log.WithError(err).Warn("identifier map reload failed")
				continue
			}
			log.Info("identifier map reloaded")
		}
	}
}
