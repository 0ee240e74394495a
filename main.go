package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"

	"examstore_backend/internals/configs"
	database "examstore_backend/internals/databases"
	filterService "examstore_backend/internals/features/catalog/filters/service"
	searchService "examstore_backend/internals/features/catalog/search/service"
	emailService "examstore_backend/internals/features/emails/service"
	orderService "examstore_backend/internals/features/orders/service"
	middlewares "examstore_backend/internals/middlewares"
	routes "examstore_backend/internals/route"
	seeds "examstore_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// Request-ID + timing
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		dur := time.Since(start)
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s", id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), dur)
		return err
	})

	middlewares.SetupMiddlewares(app)

	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()

	if configs.GetBool("RUN_SEEDS", false) {
		seeds.RunAllSeeds(database.DB)
	}

	// Filter registry: closure is precomputed once, refreshed on a
	// timer so catalog edits land without a restart. Each successful
	// refresh also drops cached search pages, since they bake in the
	// old taxonomy.
	registry := filterService.NewFilterRegistry()
	if err := registry.Refresh(database.DB); err != nil {
		log.Printf("[BOOT] filter registry initial load failed: %v", err)
	}
	search := searchService.NewSearchService(database.DB, registry)
	go func() {
		ticker := time.NewTicker(time.Duration(configs.GetInt("FILTER_REFRESH_SECONDS", 300)) * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := registry.Refresh(database.DB); err != nil {
				log.Printf("[FILTERS] refresh failed: %v", err)
				continue
			}
			search.InvalidateCache()
		}
	}()

	// Payment gateway
	orderService.InitMidtrans(configs.GetEnv("MIDTRANS_SERVER_KEY"), configs.GetBool("MIDTRANS_USE_PROD", false))

	// Email worker
	processor := emailService.NewQueueProcessor(database.DB, emailService.NewRenderer(database.DB), emailService.NewSMTPSender())
	queueCron := emailService.StartQueueScheduler(database.DB, processor)

	routes.SetupRoutes(app, database.DB, search, processor)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	queueCron.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
