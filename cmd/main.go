/**
 * @description
 * This is the main entry point for the exchange service. It is responsible for
 * initializing all components of the service, including configuration, the
 * durable store, the notification producer, the core components (slot
 * registry, rate table, settlement engine), the session janitor, and the HTTP
 * server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages.
 * - pkg/rabbitmq: Notification delivery to the chat gateway.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TanishThakur77/Gameclub-Bot/internal/api"
	"github.com/TanishThakur77/Gameclub-Bot/internal/app"
	"github.com/TanishThakur77/Gameclub-Bot/internal/config"
	"github.com/TanishThakur77/Gameclub-Bot/internal/store"
	rmrabbit "github.com/TanishThakur77/Gameclub-Bot/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.GatewayJWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"gateway jwt secret must be configured\" env=GATEWAY_JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting exchange service\" port=%s", cfg.ServerPort)

	// Select the repository: PostgreSQL when configured, in-memory otherwise.
	// The in-memory store is for local development; slot and ledger state is
	// lost on restart.
	var repository store.Repository
	if cfg.DatabaseURL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
		}

		poolConfig.MaxConns = 50
		poolConfig.MinConns = 5
		poolConfig.MaxConnLifetime = 30 * time.Minute
		poolConfig.MaxConnIdleTime = 5 * time.Minute

		// Disable prepared statement caching to prevent conflicts
		poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

		dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
		}
		defer dbpool.Close()

		pgRepo := store.NewPostgresRepository(dbpool)
		schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 15*time.Second)
		if err := pgRepo.EnsureSchema(schemaCtx); err != nil {
			cancelSchema()
			log.Fatalf("level=fatal component=bootstrap msg=\"schema setup failed\" err=%v", err)
		}
		cancelSchema()
		repository = pgRepo
		log.Println("level=info component=bootstrap msg=\"database connected\"")
	} else {
		repository = store.NewMemoryRepository()
		log.Println("level=warn component=bootstrap msg=\"DATABASE_URL not set; using in-memory store\"")
	}

	// Initialize the RabbitMQ producer that delivers settlement notices to the
	// chat gateway. This service only publishes.
	var producer rmrabbit.Publisher
	if cfg.RabbitMQURL == "" {
		log.Println("level=warn component=bootstrap msg=\"RABBITMQ_URL not set; settlement notices disabled\"")
		producer = &rmrabbit.EventProducerFallback{}
	} else if p, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL, cfg.SettlementEventExchange); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer p.Close()
		producer = p
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the core components.
	registry := app.NewSlotRegistry(repository)
	rates := app.NewRateTable(cfg)
	engine := app.NewEngine(repository, producer, app.EngineOptions{
		ConfirmWindow:      time.Duration(cfg.ConfirmWindowSeconds) * time.Second,
		VouchChannelRef:    cfg.VouchChannelRef,
		InviteURL:          cfg.InviteURL,
		FeedbackChannelRef: cfg.FeedbackChannelRef,
	})
	defer engine.Stop()

	// Sweep resolved sessions out of memory on a schedule.
	janitor, err := app.NewJanitor(engine, cfg.SessionSweepSchedule, time.Duration(cfg.SessionRetentionMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"janitor schedule invalid\" schedule=%q err=%v", cfg.SessionSweepSchedule, err)
	}
	janitor.Start()
	log.Printf("level=info component=bootstrap msg=\"session janitor started\" schedule=%q", cfg.SessionSweepSchedule)

	// Initialize the API handlers and routes.
	handlers := api.NewExchangeHandlers(registry, rates, engine)
	router := chi.NewRouter()
	router.Mount("/exchange", api.ExchangeRoutes(handlers, cfg.GatewayJWTSecret))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}
	<-janitor.Stop().Done()

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
