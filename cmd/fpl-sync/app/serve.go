package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iceymoss/go-fpl/internal/server"
	"github.com/iceymoss/go-fpl/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the dashboard API until interrupted",
	RunE:  runServe,
}

var migrateOnStart bool

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", true, "auto-migrate tables before starting")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		logger.Error("❌ startup failed", zap.Error(err))
		return err
	}
	defer rt.Close()

	if migrateOnStart {
		if err := rt.store.Migrate(ctx); err != nil {
			logger.Error("❌ migrate failed", zap.Error(err))
			return err
		}
	}

	srv := server.NewServer(server.Options{
		Manager:   rt.manager,
		Report:    rt.report,
		Runs:      rt.jobs,
		Gatherer:  rt.registry,
		StaticDir: cfg.Storage.BasePath,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.manager.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx, cfg.Server.Port) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("❌ Server error", zap.Error(err))
		return err
	}
	return nil
}

// commandContext cobra 没有传 ctx 时兜底
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
