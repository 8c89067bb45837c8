package main

import (
	"os"
	"time"

	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/securechat/server/adapters/events"
	"github.com/securechat/server/adapters/limiter"
	"github.com/securechat/server/adapters/store"
	"github.com/securechat/server/adapters/tokenizer"
	"github.com/securechat/server/ports"
	"github.com/securechat/server/service"
	"github.com/securechat/server/transport/http"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	listenAddr := envOr("LISTEN_ADDR", ":9000")
	dbPath := envOr("DB_PATH", "securechat.db")
	redisURL := os.Getenv("REDIS_URL")

	// Generate a new ECDSA key pair (you would normally load this from somewhere secure)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to generate signing key")
	}

	credStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", dbPath).Msg("failed to open database")
	}
	defer credStore.Close()

	// Without Redis the service runs self-contained: in-process rate
	// limiting and no event stream.
	var rateLimiter ports.RateLimiter = limiter.NewMemoryLimiter()
	var eventPub ports.EventPublisher = events.NewNoopPublisher()

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to parse Redis URL")
		}
		redisClient := redis.NewClient(opts)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create Redis publisher")
		}

		rateLimiter = limiter.NewRedisLimiter(redisClient)
		eventPub = events.NewWatermillPublisher(publisher)
	}

	sessionTokenizer := tokenizer.NewJWTTokenizer(privateKey, time.Hour)

	authService := service.NewAuthService(credStore, sessionTokenizer, rateLimiter, eventPub, logger)
	messageService := service.NewMessageService(credStore, credStore, logger)

	// Setup Gin router
	router := http.SetupRouter(authService, messageService, sessionTokenizer)

	logger.Info().Str("addr", listenAddr).Msg("starting server")
	if err := router.Run(listenAddr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
