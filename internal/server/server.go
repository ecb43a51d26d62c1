package server

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"mangowheel/internal/cache"
	"mangowheel/internal/config"
	"mangowheel/internal/database"
	"mangowheel/internal/fund"
	"mangowheel/internal/game"
	"mangowheel/internal/wallet"
)

type FiberServer struct {
	*fiber.App

	cfg     *config.Config
	db      database.Service
	cache   cache.Service
	wallet  *wallet.Service
	fund    *fund.Ledger
	hub     *game.Hub
	manager *game.Manager
}

func New() *FiberServer {
	cfg := config.Load()

	db := database.New()

	redisService := cache.New()
	if redisService == nil {
		log.Fatal("[SERVER] Redis is required for wallet and round state")
	}

	walletSvc := wallet.New(redisService.GetClient())
	fundLedger := fund.New(db.DB(), cfg)

	hub := game.NewHub()
	betLedger := game.NewBetLedger(walletSvc)
	risk := game.NewRiskAnalyzer(cfg.RoundEpoch, cfg.ProtectionThreshold,
		cfg.MaxExposurePercent, betLedger, fundLedger, walletSvc)
	manager := game.NewManager(cfg, betLedger, risk, fundLedger, hub)

	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "mangowheel",
			AppName:       "mangowheel",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
		}),

		cfg:     cfg,
		db:      db,
		cache:   redisService,
		wallet:  walletSvc,
		fund:    fundLedger,
		hub:     hub,
		manager: manager,
	}

	server.App.Use(recover.New())
	server.App.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	if err := fundLedger.Start(context.Background()); err != nil {
		log.Printf("[SERVER] Fund ledger started degraded: %v", err)
	}
	go hub.Run()
	manager.Start()

	log.Println("[SERVER] Round manager started")

	return server
}

// Shutdown gracefully stops the round loop and closes connections.
func (s *FiberServer) Shutdown() error {
	log.Println("[SERVER] Shutting down...")

	if s.manager != nil {
		s.manager.Stop()
	}
	if s.fund != nil {
		s.fund.Stop()
	}
	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	return nil
}
