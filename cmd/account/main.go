package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/reviewhub/internal/account"
	"github.com/dmitrijs2005/reviewhub/internal/account/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := account.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
