package main

import (
	"context"
	"log"

	"github.com/guardget/guardget/internal/client/cli"
	"github.com/guardget/guardget/internal/client/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatal(err)
	}

	app.Run(context.Background())
}
