package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"spoilerviewer/internal/cli"
)

// main stands in for the game host: it builds the menu, invokes the chosen
// action and maps the outcome to a semantic exit code.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code, err := cli.Run(ctx, os.Args[1:], cli.Options{})
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}
