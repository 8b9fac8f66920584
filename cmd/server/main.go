package main

import (
	"context"
	"log"
	"os"

	"github.com/loginchat/authserver/internal/buildinfo"
	"github.com/loginchat/authserver/internal/server"
	"github.com/loginchat/authserver/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
