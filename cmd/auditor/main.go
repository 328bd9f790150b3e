package main

import (
	"os"

	auditor_app "catalog-media/internal/app/auditor"
	"catalog-media/internal/config"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	auditorApp, err := auditor_app.NewApp(cfg, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create auditor")
	}

	if err := auditorApp.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Auditor failed")
	}

	zlog.Logger.Info().Msg("Auditor exited successfully")
	os.Exit(0)
}
