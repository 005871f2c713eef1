package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"account-api/internal/config"
	"account-api/internal/db"
	apihttp "account-api/internal/http"
	"account-api/internal/repository"
	"account-api/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	tokenSvc := service.NewTokenService(
		cfg.JWTSecret,
		time.Duration(cfg.TokenTTLMinutes)*time.Minute,
		time.Duration(cfg.RememberTTLHours)*time.Hour,
	)
	userSvc := service.NewUserService(logger, userRepo, tokenSvc)

	userHandler := apihttp.NewUserHandler(logger, userSvc)
	authMW := apihttp.AuthMiddleware(tokenSvc, userRepo)
	router := apihttp.NewRouter(logger, cfg.IsDevelopment(), pool, userHandler, authMW)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.Port))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
