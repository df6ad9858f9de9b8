package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/sitekeeper/internal/admin"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := admin.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = app.Run(ctx, os.Args[1:])
	if cerr := app.Close(); cerr != nil {
		log.Printf("close: %v", cerr)
	}
	if err != nil {
		if errors.Is(err, admin.ErrUsage) {
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}

}
