package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"converterapi/docs"
	"converterapi/internal/config"
	handlers "converterapi/internal/http/handler"
	"converterapi/internal/http/middleware"
	"converterapi/internal/logger"
	"converterapi/internal/otel"
	"converterapi/internal/service"
	"converterapi/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title       Converter API
// @version     1.0.0
// @description Converts Word documents (.docx) into PowerPoint presentations (.pptx).
// @BasePath    /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc, locErr := time.LoadLocation(cfg.Timezone)
	if locErr != nil {
		loc = time.UTC
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, loc)
	if locErr != nil {
		log.Warn().Err(locErr).Str("timezone", cfg.Timezone).Msg("unknown timezone, using UTC")
	}

	shutdownTracing, err := otel.Init(context.Background(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	store, err := storage.NewFilesystem(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Storage.BaseDir).Msg("failed to initialize artifact storage")
	}

	converter := service.NewConverterService(store, service.ConvertOptions{
		DetailsSlide:     cfg.Convert.DetailsSlide,
		MaxDocumentBytes: int64(cfg.Convert.BodyLimit()),
	}, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	app := fiber.New(fiber.Config{
		AppName:               "converter-api",
		ErrorHandler:          handlers.ErrorHandler(log),
		BodyLimit:             cfg.Convert.BodyLimit(),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept," + middleware.RequestIDHeader,
	}))

	app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, converter)

	registerSwagger(app, cfg)

	addr := ":" + cfg.Port
	go func() {
		log.Info().
			Str("addr", addr).
			Str("artifact_dir", cfg.Storage.BaseDir).
			Bool("details_slide", cfg.Convert.DetailsSlide).
			Msg("server starting")
		if err := app.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}

// registerSwagger fixes the documented host and schemes before serving.
// Requests only read docs.SwaggerInfo.
func registerSwagger(app *fiber.App, cfg *config.AppConfig) {
	docs.SwaggerInfo.Host = cfg.AppHost
	docs.SwaggerInfo.Schemes = cfg.SwaggerSchemes
	app.Get("/swagger/*", swagger.HandlerDefault)
}
