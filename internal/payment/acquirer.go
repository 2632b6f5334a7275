package payment

import (
	"context"

	"github.com/google/uuid"
)

// Acquirer represents a connector to an external card processor.
type Acquirer interface {
	Authorize(ctx context.Context, input Authorization) (AuthorizationDecision, error)
}

// Authorization encapsulates details needed for a card authorization.
type Authorization struct {
	Instrument string
	HolderName string
	Amount     int64
}

// AuthorizationDecision captures the response from the acquirer.
type AuthorizationDecision struct {
	Reference string
	Approved  bool
}

// StaticAcquirer simulates a successful acquirer integration.
type StaticAcquirer struct{}

// Authorize approves the request with a synthetic reference.
func (StaticAcquirer) Authorize(_ context.Context, _ Authorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: uuid.NewString(), Approved: true}, nil
}
