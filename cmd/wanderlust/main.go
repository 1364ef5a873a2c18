// Command wanderlust serves the listings marketplace.
package main

import (
	"github.com/patric-chuzhbe/wanderlust/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		panic(err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		panic(err)
	}
}
