package main

import (
	"context"
	"log"

	"github.com/ottbox/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
