package main

import (
	"log"

	"catalog-cache/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("catalog-cache failed: %v", err)
	}
}
