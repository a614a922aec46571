package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	webAdapter "orderflow/internal/adapters/web"
	"orderflow/internal/app"
	"orderflow/internal/db"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") == "true" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	svc := app.NewAppService(pool, log)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable not set")
	}

	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret, log)

	log.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
