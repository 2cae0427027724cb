package main

import (
	"fmt"
	"os"
	"time"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/auth"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/broadcast"
	"auction-house/internal/config"
	notification "auction-house/internal/notificationService"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	user "auction-house/internal/userService"
	"auction-house/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // optional .env for local development

	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	utils.SetLogLevel(cfg.Log.Level)

	store, err := openStore(cfg)
	if err != nil {
		utils.Fatal("Failed to open store", map[string]any{"driver": cfg.DB.Driver, "error": err.Error()})
	}

	hub := broadcast.NewHub()

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	userSvc := user.NewUserService(store, jwter)
	auctionSvc := auction.NewAuctionService(store, hub)
	biddingSvc := bidding.NewBiddingService(store, hub)
	notificationSvc := notification.NewNotificationService(store, hub)

	router := server.SetupRouter(jwter, userSvc, auctionSvc, biddingSvc, notificationSvc, hub)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	utils.Info("Starting auction server", map[string]any{"addr": addr, "db": cfg.DB.Driver})
	if err := router.Run(addr); err != nil {
		utils.Fatal("Failed to start server", map[string]any{"error": err.Error()})
	}
}

// openStore picks the persistence backend from config. The in-memory store
// is the default and needs no DSN.
func openStore(cfg *config.Config) (repository.Store, error) {
	if cfg.DB.Driver == "" || cfg.DB.Driver == "memory" {
		return repository.NewMemoryStore(), nil
	}

	db, err := repository.OpenGorm(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	return repository.NewGormStore(db)
}
