package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Set up zerolog to use pretty printing
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	c := newCLI()
	err := c.root.Execute()
	c.Close()
	if err != nil {
		os.Exit(1)
	}
}
