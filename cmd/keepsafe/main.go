package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/keepsafe-dev/keepsafe/internal/buildinfo"
	"github.com/keepsafe-dev/keepsafe/internal/cli"
	"github.com/keepsafe-dev/keepsafe/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
