// Command hotube runs the family video API and its maintenance tasks:
//
//	hotube serve
//	hotube migrate [up|status]
//	hotube seed family
package main

import (
	"context"
	"log"
	"os"

	"github.com/hotube/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
