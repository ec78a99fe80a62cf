package main

import (
	"log"

	server "github.com/guardget/guardget/internal/server"
	"github.com/guardget/guardget/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
