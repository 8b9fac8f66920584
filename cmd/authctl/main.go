package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/loginchat/authserver/internal/authctl"
	"github.com/loginchat/authserver/internal/server/config"
)

func main() {

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, authctl.Usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(os.Args[2:])
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app := authctl.NewApp(cfg, os.Stdin, os.Stdout)
	if err := app.Run(context.Background(), os.Args[1]); err != nil {
		log.Fatalf("%v", err)
	}

}
