package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/quickshow/quickshow/internal/catalog"
	"github.com/quickshow/quickshow/internal/config"
	"github.com/quickshow/quickshow/internal/database"
	"github.com/quickshow/quickshow/internal/favorites"
	"github.com/quickshow/quickshow/internal/handler"
	"github.com/quickshow/quickshow/internal/payment"
	"github.com/quickshow/quickshow/internal/queue"
	"github.com/quickshow/quickshow/internal/repository"
	"github.com/quickshow/quickshow/internal/reservation"
	"github.com/quickshow/quickshow/internal/router"
	queue_publisher "github.com/quickshow/quickshow/internal/service"
	"github.com/quickshow/quickshow/internal/worker"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; dependents degrade

	movieRepo := repository.NewMovieRepo(db)
	showRepo := repository.NewShowRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	var notifier reservation.Notifier
	var publisher *queue_publisher.Publisher
	if cfg.AMQPURL != "" {
		publisher = queue_publisher.New(cfg.AMQPURL)
		notifier = publisher
		go func() {
			if err := queue.StartNotificationConsumer(cfg.AMQPURL); err != nil {
				log.Printf("queue consumer stopped: %v", err)
			}
		}()
	}

	svc := reservation.New(bookingRepo, notifier, cfg.HoldWindow)

	payments := payment.NewStripeProvider(cfg.StripeKey, cfg.StripeWebhook, cfg.Currency, cfg.FrontendURL)
	cat := catalog.NewClient(cfg.TMDBKey, rdb)

	var favStore favorites.Store
	if rdb != nil {
		favStore = favorites.NewRedisStore(rdb)
	} else {
		favStore = favorites.NewMemoryStore()
	}

	h := router.Handlers{
		Show:      handler.NewShowHandler(showRepo, movieRepo, svc),
		Booking:   handler.NewBookingHandler(svc, payments, bookingRepo, showRepo, movieRepo),
		Webhook:   handler.NewWebhookHandler(svc, payments),
		Favorites: handler.NewFavoritesHandler(favStore, movieRepo),
		Admin:     handler.NewAdminShowHandler(cat, movieRepo, showRepo, publisher),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg.AuthSecret, rlCfg, rdb)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sweeper := worker.NewSweeper(svc, cfg.SweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	go func() {
		<-ctx.Done()
		log.Println("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
