package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZackMurry/cardtown-sub000/internal/auth"
	"github.com/ZackMurry/cardtown-sub000/internal/platform"
	"github.com/ZackMurry/cardtown-sub000/internal/server"
)

func main() {
	logger := log.New(os.Stdout, "[cardvaultd] ", log.LstdFlags)

	// This process holds plaintext keys in memory during requests; a core
	// dump would write them to disk.
	if err := platform.DisableCoreDumps(); err != nil {
		logger.Printf("warning: could not disable core dumps: %v", err)
	}

	cfg := server.Config{
		Addr:      os.Getenv("CARDVAULT_ADDR"),
		MongoURI:  os.Getenv("CARDVAULT_MONGO_URI"),
		MongoDB:   os.Getenv("CARDVAULT_MONGO_DB"),
		JWTSecret: os.Getenv("CARDVAULT_JWT_SECRET"),
		JWTIssuer: os.Getenv("CARDVAULT_JWT_ISSUER"),
		Operator: auth.OperatorCreds{
			Email:    os.Getenv("CARDVAULT_OPERATOR_EMAIL"),
			Password: os.Getenv("CARDVAULT_OPERATOR_PASSWORD"),
		},
	}
	if ttl := os.Getenv("CARDVAULT_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			logger.Fatalf("bad CARDVAULT_TOKEN_TTL: %v", err)
		}
		cfg.TokenTTL = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Printf("listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	if err := s.Close(shutdownCtx); err != nil {
		logger.Printf("storage disconnect: %v", err)
	}
}
