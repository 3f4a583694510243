package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/archiveloader/internal/config"
	"github.com/dmitrijs2005/archiveloader/internal/loader"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Printf("%v", err)
		os.Exit(2)
	}

	app := loader.NewApp(cfg, os.Stdout)
	if _, err := app.RunExport(context.Background()); err != nil {
		log.Printf("export failed: %v", err)
		os.Exit(1)
	}
}
