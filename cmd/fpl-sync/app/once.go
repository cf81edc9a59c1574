package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/pkg/logger"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single sync cycle and exit; non-zero exit when any task failed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.store.Migrate(ctx); err != nil {
			return err
		}

		res := rt.manager.RunCycle(ctx)
		if !res.OK() {
			logger.Error("❌ cycle finished with failures", zap.Strings("failed", res.Failed()))
			return fmt.Errorf("cycle %s: %w", res.ID, res.Err())
		}
		return nil
	},
}
