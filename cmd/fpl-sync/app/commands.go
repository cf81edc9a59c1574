// Package app fpl-sync 命令行入口
package app

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/internal/conf"
	"github.com/iceymoss/go-fpl/pkg/logger"
	"github.com/iceymoss/go-fpl/pkg/utils"
)

var (
	configPath string
	envFile    string

	cfg *conf.Config
)

var rootCmd = &cobra.Command{
	Use:           "fpl-sync",
	Short:         "Tiered FPL data sync scheduler",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// NewRootCmd 组装所有子命令
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to config file (empty for defaults + env)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file loaded before the config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pruneCmd)

	return rootCmd
}

func loadConfig() error {
	if envFile != "" {
		// .env 不存在时只用进程环境变量
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Error("❌ .env error", zap.String("file", envFile), zap.Error(err))
				return err
			}
			logger.Debug("no .env file", zap.String("file", envFile))
		}
	}

	c, err := conf.LoadConfig(configPath)
	if err != nil {
		logger.Error("❌ LoadConfig error", zap.Error(err))
		return err
	}
	if err := c.Validate(); err != nil {
		logger.Error("❌ invalid config", zap.Error(err))
		return err
	}

	utils.SetLocation(c.Scheduler.Timezone)
	cfg = c
	return nil
}
