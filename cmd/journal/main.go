// Package main provides the entry point for the trade journal CLI.
package main

import (
	"fmt"
	"os"

	"trade-journal/internal/cli"
	"trade-journal/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	app := cli.NewApp(logging.NewLoggerWithConfig(logging.LogConfig{Level: "warn", Console: true}))
	defer app.Close()

	if err := cli.NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
