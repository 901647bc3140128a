// Package storage persists entities whose confidential fields arrive
// already encrypted. It never sees a key and never filters on a
// confidential field; lookups go by id and owner id only.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/entity"
)

var ErrNotFound = errors.New("storage: not found")

type CardStore interface {
	PutCard(ctx context.Context, c *entity.Card) error
	GetCard(ctx context.Context, id uuid.UUID) (*entity.Card, error)
	ListCardsByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Card, error)
	DeleteCard(ctx context.Context, id uuid.UUID) error
}

type ArgumentStore interface {
	PutArgument(ctx context.Context, a *entity.Argument) error
	GetArgument(ctx context.Context, id uuid.UUID) (*entity.Argument, error)
	ListArgumentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Argument, error)
	DeleteArgument(ctx context.Context, id uuid.UUID) error
}

type AnalyticStore interface {
	PutAnalytic(ctx context.Context, a *entity.Analytic) error
	ListAnalyticsByArgument(ctx context.Context, argumentID uuid.UUID) ([]entity.Analytic, error)
	DeleteAnalytic(ctx context.Context, id uuid.UUID) error
}

// EntityStore is the full collaborator contract the encryption core writes
// through.
type EntityStore interface {
	CardStore
	ArgumentStore
	AnalyticStore
}
