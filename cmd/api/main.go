package main

import (
	"os"

	"github.com/yigit/cms/internal/pkg/logger"
	"github.com/yigit/cms/internal/server"
)

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// Setup functions log their own details
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Blocks until shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
