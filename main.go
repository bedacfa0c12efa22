package main

import (
	"log/slog"

	"github.com/BioHazard786/syncwatch/cmd"
	"github.com/BioHazard786/syncwatch/internal/logging"
)

func main() {
	// Quiet by default so the terminal UI stays readable; serve raises it.
	logging.Init(slog.LevelError)
	cmd.Execute()
}
