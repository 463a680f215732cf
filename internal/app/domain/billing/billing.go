// Package billing answers one question for the rate limiter: is this user on
// a paid plan.
package billing

import (
	"context"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/subscription"
	"go.uber.org/zap"
)

// Service reports a user's entitlement tier.
type Service interface {
	// IsPremium reports whether the Stripe customer has an active
	// subscription. It must degrade to false rather than fail: billing
	// outages should never block free-tier behavior.
	IsPremium(ctx context.Context, customerID string) bool
}

// StripeService checks entitlement against live Stripe subscription state.
type StripeService struct {
	logger *zap.Logger
}

func NewStripeService(apiKey string, logger *zap.Logger) *StripeService {
	stripe.Key = apiKey
	return &StripeService{logger: logger}
}

func (s *StripeService) IsPremium(ctx context.Context, customerID string) bool {
	if customerID == "" {
		return false
	}

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := subscription.List(params)
	for iter.Next() {
		return true
	}
	if err := iter.Err(); err != nil {
		// Treat billing errors as non-premium: the user keeps the free tier
		// instead of being blocked outright.
		s.logger.Warn("Subscription lookup failed, treating user as non-premium",
			zap.String("customer_id", customerID),
			zap.Error(err))
	}
	return false
}

// StaticService is a fixed-answer entitlement service for tests and local
// development without Stripe credentials.
type StaticService struct {
	Premium bool
}

func (s *StaticService) IsPremium(context.Context, string) bool {
	return s.Premium
}
