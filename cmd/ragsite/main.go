package main

import (
	"log"

	"github.com/ragtech-dev/ragsite/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("ragsite failed to start: %v", err)
	}
}
