package main

import (
	"os"

	"github.com/iceymoss/go-fpl/cmd/fpl-sync/app"
	"github.com/iceymoss/go-fpl/pkg/logger"
)

func main() {
	defer logger.Sync()

	if err := app.NewRootCmd().Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}
