package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dhawalhost/wardlink/internal/boxyapi"
	"github.com/dhawalhost/wardlink/internal/gateway"
	"github.com/dhawalhost/wardlink/pkg/logger"
	"github.com/dhawalhost/wardlink/pkg/mfa"
	"github.com/dhawalhost/wardlink/pkg/middleware"
	"github.com/dhawalhost/wardlink/pkg/multitenancy"
	"github.com/dhawalhost/wardlink/pkg/observability"
	"github.com/dhawalhost/wardlink/pkg/querier"
	"github.com/dhawalhost/wardlink/pkg/thirdparty"
)

const serviceName = "wardlink-gateway"

func main() {
	log, err := logger.New(getenv("LOG_LEVEL", "info"), os.Getenv("ENVIRONMENT") != "production")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: getenv("SERVICE_VERSION", "dev"),
		Environment:    getenv("ENVIRONMENT", "development"),
	}, log)
	if err != nil {
		log.Fatal("initializing tracer", zap.Error(err))
	}

	q := querier.New(querier.Config{
		BaseURL: getenv("CORE_URL", "http://localhost:3567"),
		APIKey:  os.Getenv("CORE_API_KEY"),
	})

	mt := &multitenancy.Recipe{
		Querier: q,
		AllAvailableFirstFactors: []string{
			mfa.FactorEmailPassword,
			mfa.FactorThirdParty,
		},
	}
	tp := &thirdparty.Recipe{
		Querier:      q,
		Multitenancy: mt,
		Logger:       log,
	}

	var boxy *boxyapi.Client
	if boxyURL := os.Getenv("BOXY_URL"); boxyURL != "" {
		boxy = boxyapi.New(boxyURL, os.Getenv("BOXY_API_KEY"))
	}

	metrics := observability.NewMetrics()
	handler := gateway.NewHTTPHandler(tp, mt, boxy, metrics, log)

	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RateLimitMiddleware(rate.Limit(envFloat("RATE_LIMIT_RPS", 50)), envInt("RATE_LIMIT_BURST", 100)))
	router.Use(observability.PrometheusMiddleware(metrics))
	router.Use(otelgin.Middleware(serviceName))

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, middleware.RequestIDHeader)
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(observability.PrometheusHandler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	handler.RegisterRoutes(router)

	addr := getenv("LISTEN_ADDR", ":8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown", zap.Error(err))
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
