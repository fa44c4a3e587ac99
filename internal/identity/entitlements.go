package identity

import "context"

type gamepassOwner interface {
	OwnsGamepass(ctx context.Context, userID string) (bool, error)
}

// Entitlements answers business class eligibility from gamepass ownership.
type Entitlements struct {
	owner gamepassOwner
}

func NewEntitlements(owner gamepassOwner) *Entitlements {
	return &Entitlements{owner: owner}
}

func (e *Entitlements) VerifyEntitlement(ctx context.Context, principalID string) (bool, error) {
	return e.owner.OwnsGamepass(ctx, principalID)
}
