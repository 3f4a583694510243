package main

import (
	"context"
	"fmt"
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

	app := loader.NewApp(cfg, os.Stderr)
	files, err := app.RunGDCPull(context.Background())
	if err != nil {
		log.Printf("gdc pull failed: %v", err)
		os.Exit(1)
	}

	for _, f := range files {
		fmt.Println(f)
	}
}
