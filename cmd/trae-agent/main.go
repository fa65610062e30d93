// Command trae-agent runs the software-engineering agent against a
// task, either one-shot or as an interactive REPL.
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/traeagent/trae-agent-go/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.Load(); err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
