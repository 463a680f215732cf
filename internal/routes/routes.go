// Package routes wires the domain services onto the HTTP router.
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/decisionjar/backend/internal/app/ai"
	"github.com/decisionjar/backend/internal/app/domain/billing"
	"github.com/decisionjar/backend/internal/app/domain/concierge"
	"github.com/decisionjar/backend/internal/app/domain/generate"
	"github.com/decisionjar/backend/internal/app/domain/intent"
	"github.com/decisionjar/backend/internal/app/domain/validator"
	"github.com/decisionjar/backend/internal/app/middleware"
	"github.com/decisionjar/backend/internal/pkg/config"
)

// Setup constructs the domain services and registers all routes.
func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) error {
	aiClient, err := ai.NewClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Models, logger)
	if err != nil {
		return err
	}

	repo := generate.NewPostgresRepository(dbPool)
	parser := intent.NewParser(aiClient, logger)
	verifier := validator.NewVerifier(aiClient, logger)

	var lookup concierge.VenueLookup
	if cfg.Places.APIKey != "" {
		lookup = concierge.NewPlacesClient(cfg.Places.APIKey, logger)
	} else {
		logger.Warn("Places API key not configured, venue lookups disabled")
	}
	dispatcher := concierge.NewDispatcher(lookup, logger)

	var billingSvc billing.Service
	if cfg.Stripe.SecretKey != "" {
		billingSvc = billing.NewStripeService(cfg.Stripe.SecretKey, logger)
	} else {
		logger.Warn("Stripe key not configured, all users treated as free tier")
		billingSvc = &billing.StaticService{}
	}

	svc := generate.NewService(repo, aiClient, parser, verifier, dispatcher, billingSvc,
		cfg.Quota.FreeDailyGenerations, logger)
	handler := generate.NewHandler(svc, logger)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(middleware.JWTConfig{
		SecretKey:       cfg.Auth.JWTSecret,
		TokenExpiration: 24 * time.Hour,
		Logger:          logger,
	}))
	handler.RegisterRoutes(api)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return nil
}
