// Command token mints an admin access token for the configured JWT secret.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/yigit/cms/internal/app/models"
	"github.com/yigit/cms/internal/bootstrap"
	"github.com/yigit/cms/internal/config"
	"github.com/yigit/cms/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	subject := flag.String("subject", "admin", "Token subject")
	ttl := flag.String("ttl", "", "Token lifetime, overrides auth.token_expiration")
	flag.Parse()

	// Keep stdout for the token itself
	logger.Configure(logger.Config{Level: logger.InfoLevel, Pretty: true, Output: os.Stderr})

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if cfg.Auth.Secret == "" {
		logger.Error().Msg("auth.secret is empty, nothing to sign with")
		os.Exit(1)
	}

	if *ttl != "" {
		cfg.Auth.TokenExpiration = *ttl
	}

	token, expiresAt, err := bootstrap.NewJWTService(cfg).GenerateToken(*subject, models.RoleAdmin)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		os.Exit(1)
	}

	logger.Info().Str("subject", *subject).Time("expiresAt", expiresAt).Msg("Admin token generated")
	fmt.Println(token)
}
