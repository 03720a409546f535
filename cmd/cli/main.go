package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/avlasov/securevault/internal/buildinfo"
	"github.com/avlasov/securevault/internal/cli"
	"github.com/avlasov/securevault/internal/config"
	"github.com/avlasov/securevault/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
