package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophsync/internal/client/app"
	"github.com/dmitrijs2005/gophsync/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	a, err := app.NewApp(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
