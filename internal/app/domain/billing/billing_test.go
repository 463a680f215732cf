package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Both implementations carry pointer receivers, so only pointers satisfy the
// interface. Pinned here so wiring code cannot regress to value assignment.
var (
	_ Service = &StaticService{}
	_ Service = (*StripeService)(nil)
)

func TestStaticService_ReportsConfiguredTier(t *testing.T) {
	assert.False(t, (&StaticService{}).IsPremium(context.Background(), "cus_123"))
	assert.True(t, (&StaticService{Premium: true}).IsPremium(context.Background(), "cus_123"))
}

func TestStripeService_EmptyCustomerIsNeverPremium(t *testing.T) {
	svc := NewStripeService("sk_test_dummy", zap.NewNop())

	// No network call happens for an empty customer id.
	assert.False(t, svc.IsPremium(context.Background(), ""))
}
