package application

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/notify/domain"
)

type FlagStore interface {
	// Flag resolves a feature flag by name; absent flags fail with
	// ErrFlagNotFound.
	Flag(ctx context.Context, name string) (domain.FeatureFlag, error)
}

type GroupLookup interface {
	IsMember(ctx context.Context, userID uuid.UUID, group string) (bool, error)
}

// Dispatcher delivers one formatted notification. Fire-and-forget: the
// targeting service logs failures and moves on.
type Dispatcher interface {
	Send(ctx context.Context, recipients []string, subject, body string) error
}
