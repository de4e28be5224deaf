package relationship

import (
	"context"

	"github.com/google/uuid"
)

type RelationshipRepository interface {
	Find(ctx context.Context, q Query) ([]*Relationship, error)
	// Save inserts the relationship when it is new and updates it
	// otherwise. Each call is a single atomic statement at the storage
	// boundary.
	Save(ctx context.Context, r *Relationship) error
}

type TypeRepository interface {
	GetType(ctx context.Context, id uuid.UUID) (*RelationshipType, error)
	ListTypes(ctx context.Context, includeRetired bool) ([]*RelationshipType, error)
}
