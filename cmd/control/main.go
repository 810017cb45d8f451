package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/familyrecipe/internal/control"
	"github.com/dmitrijs2005/familyrecipe/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := control.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	err = app.Run(ctx, os.Args[1:])
	_ = app.Close()

	if err != nil {
		if !errors.Is(err, control.ErrUsage) {
			log.Printf("%v", err)
		}
		os.Exit(1)
	}

}
