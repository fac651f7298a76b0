package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"securechat/internal/auth"
	"securechat/internal/channel"
	"securechat/internal/chat"
	"securechat/internal/encryption"
	"securechat/internal/hub"
	"securechat/internal/presence"
	"securechat/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: parseLogLevel(config.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
	})
	defer func() {
		_ = rdb.Close()
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable at %s: %w", config.RedisAddr, err)
	}

	keys, err := encryption.NewKeyService()
	if err != nil {
		return fmt.Errorf("key service: %w", err)
	}

	kv := store.NewRedis(rdb)
	registry := presence.NewRegistry(kv)
	channels := channel.NewStore(kv, keys)
	protocol := chat.NewProtocol(logger, registry, channels, keys)

	h := hub.NewHub(ctx)
	go h.Run()

	verifier := auth.NewVerifier([]byte(config.JWTSecret))
	controller := NewController(ctx, logger, h, protocol, verifier)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", controller.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(config.AllowedOrigins, ","),
		AllowCredentials: true,
	}).Handler(mux)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: handler}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting websocket relay", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
