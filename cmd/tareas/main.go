// Command tareas runs the task management HTTP API.
package main

import (
	"log"
	"os"

	"github.com/patric-chuzhbe/tareas/internal/app"
	"github.com/patric-chuzhbe/tareas/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

// run owns every deferred cleanup, so main only exits once the app is closed.
func run(args []string) error {
	theApp, err := app.New(config.WithArgs(args))
	if err != nil {
		return err
	}
	defer theApp.Close()

	return theApp.Run()
}
