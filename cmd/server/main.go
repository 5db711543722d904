package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/taskvault/internal/buildinfo"
	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/server"
	"github.com/dmitrijs2005/taskvault/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	app := server.NewApp(cfg, logger)
	if err := app.Run(); err != nil {
		log.Fatalf("%v", err)
	}
}
