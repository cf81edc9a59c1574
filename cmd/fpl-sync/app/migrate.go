package app

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/internal/repo"
	"github.com/iceymoss/go-fpl/internal/store"
	"github.com/iceymoss/go-fpl/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the sync tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		gdb, err := openDB(cfg)
		if err != nil {
			return err
		}
		if err := store.New(gdb).Migrate(commandContext(cmd)); err != nil {
			return err
		}
		logger.Info("✅ migrate finished")
		return nil
	},
}

var pruneAge time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete job run logs older than --older-than",
	RunE: func(cmd *cobra.Command, _ []string) error {
		gdb, err := openDB(cfg)
		if err != nil {
			return err
		}
		n, err := repo.NewJobRepo(gdb).Prune(commandContext(cmd), time.Now().Add(-pruneAge))
		if err != nil {
			return err
		}
		logger.Info("🧹 job logs pruned", zap.Int64("rows", n), zap.Duration("older_than", pruneAge))
		return nil
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneAge, "older-than", 30*24*time.Hour, "age of the oldest run log to keep")
}
