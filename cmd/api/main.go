package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"deepseek-ocr-api/internal/buckets"
	"deepseek-ocr-api/internal/database"
	"deepseek-ocr-api/internal/handlers/ocr"
	"deepseek-ocr-api/internal/middleware"
	"deepseek-ocr-api/internal/routers"
	"deepseek-ocr-api/internal/shared"
	"deepseek-ocr-api/internal/upstream"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/manifold-inc/manifold-sdk/lib/eflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Optional .env next to the binary
	_ = godotenv.Load()

	// Flags / ENV Variables
	endpoint := flag.String("deepseek-api-endpoint", shared.GetEnv("DEEPSEEK_API_ENDPOINT", shared.DefaultDeepSeekEndpoint), "OpenAI compatible OCR model base url")
	model := flag.String("deepseek-model", shared.GetEnv("DEEPSEEK_MODEL", shared.DefaultDeepSeekModel), "Model id sent upstream")
	port := flag.String("port", shared.GetEnv("PORT", shared.DefaultPort), "Listen port")
	dsn := flag.String("dsn", shared.GetEnv("DSN", ""), "MySQL DSN for the request log, disabled when empty")
	redisAddr := flag.String("redis-addr", shared.GetEnv("REDIS_ADDR", ""), "Redis host:port for the model list cache, disabled when empty")
	metricsAPIKey := flag.String("metrics-api-key", shared.GetEnv("METRICS_API_KEY", ""), "Metrics api key")
	debug := flag.Bool("debug", false, "Debug enabled")

	err := eflag.SetFlagsFromEnvironment()
	if err != nil {
		panic(err)
	}
	flag.Parse()

	var logger *zap.Logger
	if !*debug {
		logger, err = zap.NewProduction()
		if err != nil {
			panic("Failed init logger")
		}
	}
	if *debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic("Failed init logger")
		}
	}
	log := logger.Sugar()
	defer func() {
		_ = log.Sync()
	}()

	var redisClient *redis.Client
	if *redisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     *redisAddr,
			Password: "",
			DB:       0,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			panic(fmt.Sprintf("failed ping to redis db: %s", err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
	}

	var usage *buckets.UsageCache
	if *dsn != "" {
		db, err := sql.Open("mysql", *dsn)
		if err != nil {
			panic(fmt.Sprintf("failed initializing sqlClient: %s", err))
		}
		if err := db.Ping(); err != nil {
			panic(fmt.Sprintf("failed ping to sql db: %s", err))
		}
		defer func() {
			_ = db.Close()
		}()
		usage = buckets.NewUsageCache(log, database.NewFlushFunc(db, log), nil)
		defer usage.Shutdown()
	}

	client := upstream.NewClient(*endpoint, log)
	var recorder ocr.UsageRecorder
	if usage != nil {
		recorder = usage
	}
	om := ocr.NewOCRManager(client, redisClient, recorder, log, ocr.Config{Model: *model})
	log.Infow("OCR relay configured", "endpoint", client.Endpoint(), "model", om.Model, "usage_log", usage != nil, "model_cache", redisClient != nil)

	e := echo.New()
	e.HideBanner = true
	e.GET("/ping", func(c echo.Context) error {
		return c.String(200, "")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.NewMetricsAuthMiddleware(*metricsAPIKey))

	base := e.Group("")
	base.Use(emw.CORS())
	base.Use(middleware.NewTrackMiddleware(log))
	base.Use(middleware.NewRecoverMiddleware(log))

	routers.RegisterOCRRoutes(base, om)

	go func() {
		if err := e.Start(":" + *port); err != nil && err != http.ErrServerClosed {
			log.Fatalw("shutting down the server", "error", err)
		}
	}()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shared.DefaultShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorw("failed graceful shutdown", "error", err)
	}
}
