package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"

	apperrors "invtrack/internal/errors"
	"invtrack/internal/handlers"
	"invtrack/internal/logger"
	"invtrack/internal/middleware"
	"invtrack/internal/pricesync"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	noHTTP bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "runs the price sync scheduler and the operator endpoints" }
func (*serveCmd) Usage() string {
	return `worker serve [-no-http]

Runs a price sync cycle immediately and then every SYNC_INTERVAL until
interrupted. Unless -no-http is set, the operator endpoints are served on PORT:

  GET  /api/health
  GET  /api/v1/sync/status
  POST /api/v1/sync/run

An interrupt lets the running cycle finish before exiting.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.noHTTP, "no-http", false, "Run the scheduler without the operator endpoints.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logger.Get()

	a, err := newApp()
	if err != nil {
		log.Errorw("startup failed", "error", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if !c.noHTTP {
		srv = &http.Server{
			Addr:              ":" + a.cfg.Port,
			Handler:           newRouter(a),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Infof("Serving operator endpoints on port %s", a.cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("operator server failed", "error", err)
				stop()
			}
		}()
	}

	scheduler := pricesync.NewScheduler(a.syncer, a.cfg.SyncInterval, logger.Named("scheduler"))
	err = scheduler.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnw("operator server shutdown error", "error", err)
		}
	}

	// Cycles started over HTTP run detached; let them finish before the store closes.
	a.syncer.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("scheduler stopped", "error", err)
		return subcommands.ExitFailure
	}
	log.Info("Scheduler stopped")
	return subcommands.ExitSuccess
}

// newRouter builds the operator gin engine.
func newRouter(a *app) *gin.Engine {
	if a.cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	handlers.RegisterRoutes(router, handlers.NewSyncHandler(a.syncer, a.status))
	return router
}

type syncCmd struct{}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "runs one price sync cycle and exits" }
func (*syncCmd) Usage() string {
	return `worker sync

Refreshes the price of every tracked reference, recomputes every item and
records the completion time. Prints a summary of the cycle.
`
}

func (*syncCmd) SetFlags(*flag.FlagSet) {}

func (*syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := a.syncer.RunCycle(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("References fetched: %d\n", result.RefsFetched)
	fmt.Printf("Prices updated:     %d\n", result.PricesUpdated)
	fmt.Printf("Items recomputed:   %d\n", result.ItemsRecomputed)
	fmt.Printf("Duration:           %s\n", result.Duration.Round(time.Millisecond))
	for _, fe := range result.Errors {
		fmt.Printf("  skipped %s: %v\n", fe.Ref, fe.Err)
	}
	return subcommands.ExitSuccess
}

type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "prints when prices were last synced" }
func (*statusCmd) Usage() string {
	return `worker status

Prints the sync status marker, or a notice if no cycle has completed yet.
`
}

func (*statusCmd) SetFlags(*flag.FlagSet) {}

func (*statusCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	status, err := a.status.Read(ctx)
	if errors.Is(err, apperrors.ErrSyncStatusNotFound) {
		fmt.Println("Database has not been updated yet")
		return subcommands.ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(status.Text())
	return subcommands.ExitSuccess
}
