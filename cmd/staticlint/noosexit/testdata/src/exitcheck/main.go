package main

import (
	"log"
	"os"
	sys "os"
)

func main() {
	defer cleanup()

	if len(os.Args) > 3 {
		os.Exit(2) // want "avoid using os.Exit in main.main"
	}
	if len(os.Args) > 2 {
		sys.Exit(3) // want "avoid using os.Exit in main.main"
	}
	if len(os.Args) > 1 {
		log.Fatalf("unexpected argument %q", os.Args[1]) // want "avoid using log.Fatalf in main.main"
	}

	log.Println("started")
	helper()
}

func cleanup() {}

func helper() {
	os.Exit(0)
}
