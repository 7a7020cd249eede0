package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"lifeos/internal/ai"
	"lifeos/internal/config"
	"lifeos/internal/database"
	"lifeos/internal/handlers"
	"lifeos/internal/jobs"
	"lifeos/internal/logging"
	"lifeos/internal/services"
	"lifeos/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting LifeOS AI Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Store: %s)", cfg.Port, cfg.StoreBackend)

	// SQLite holds domain data and user preferences in every mode.
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// STORE_BACKEND selects where the response cache and usage log live.
	var keyed store.KeyedStore
	var usageLog store.UsageLog
	switch cfg.StoreBackend {
	case "memory":
		keyed = store.NewMemoryStore(24 * time.Hour)
		usageLog = store.NewMemoryUsageLog()
		log.Println("✅ In-memory store initialized (cache and logs are ephemeral)")
	case "redis":
		rs, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer rs.Close()
		keyed = rs
		usageLog = store.NewRedisUsageLog(rs.Client(), time.Duration(cfg.LogRetentionDays)*24*time.Hour)
		log.Println("✅ Redis store connected")
	case "sqlite":
		keyed = store.NewSQLiteStore(db)
		usageLog = store.NewSQLiteUsageLog(db)
		log.Println("✅ SQLite store initialized")
	default:
		log.Fatalf("❌ Unknown STORE_BACKEND %q (expected memory, sqlite or redis)", cfg.StoreBackend)
	}
	preferences := store.NewSQLitePreferences(db)

	// Prometheus metrics
	metrics := services.InitMetrics()
	log.Println("✅ Prometheus metrics initialized")

	// Providers. Construction never fails on a missing key; the error
	// surfaces on first use so the other provider keeps working.
	groq := ai.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqModel)
	gemini := ai.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiFlashModel, cfg.GeminiProModel)
	if cfg.GroqAPIKey == "" {
		log.Println("⚠️ GROQ_API_KEY not set - speed tier will fail over to Gemini")
	}
	if cfg.GeminiAPIKey == "" {
		log.Println("⚠️ GEMINI_API_KEY not set - deep reasoning and failover unavailable")
	}

	orchestrator := ai.NewOrchestrator(groq, gemini, gemini.FlashModel(), gemini.ProModel())
	orchestrator.OnFailover = metrics.Failovers.Inc

	responseCache := ai.NewResponseCache(keyed)
	quota := ai.NewQuotaGuard(usageLog, preferences, cfg.AIDailyLimit)

	aiService := services.NewAIService(orchestrator, responseCache, quota, usageLog, metrics)
	domainReader := services.NewSQLDomainReader(db)
	suggestionService := services.NewSuggestionService(aiService, domainReader)
	log.Println("✅ AI services initialized")

	// Background retention sweep for old usage records
	retention, err := jobs.NewRetentionJob(usageLog, cfg.LogRetentionDays)
	if err != nil {
		log.Fatalf("❌ Failed to create retention job: %v", err)
	}
	if err := retention.Start(); err != nil {
		log.Fatalf("❌ Failed to start retention job: %v", err)
	}
	log.Printf("🕐 Background jobs: usage log retention (daily, keep %d days)", cfg.LogRetentionDays)

	app := fiber.New(fiber.Config{
		AppName:      "LifeOS AI v1.0",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second, // provider calls can take a while on the pro models
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-User-ID",
	}))

	// DDoS guard in front of the AI routes; the per-user daily quota is
	// enforced further down in the service layer.
	app.Use("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	prometheus := fiberprometheus.New("lifeos")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	aiHandler := handlers.NewAIHandler(aiService, suggestionService)
	aiHandler.Register(app.Group("/api/ai"))

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := retention.Stop(); err != nil {
			log.Printf("⚠️ Error stopping retention job: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
