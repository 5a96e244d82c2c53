package main

import (
	"log"
	"os"
	exit "os"
)

func fail() {
	os.Exit(2)
}

func main() {
	defer log.Println("cleanup")

	if len(os.Args) > 3 {
		fail()
	}
	if len(os.Args) > 2 {
		exit.Exit(1) // want "avoid using os.Exit in main.main"
	}
	os.Exit(0) // want "avoid using os.Exit in main.main"
}
