package role

import (
	"context"

	"github.com/google/uuid"
)

type RoleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Role, error)
	List(ctx context.Context, includeRetired bool) ([]*Role, error)
	// Save persists the role and its relationship-type and supervisee
	// associations.
	Save(ctx context.Context, r *Role) error
	Retire(ctx context.Context, id uuid.UUID, reason string) error
	Unretire(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListBySupportedType(ctx context.Context, typeID uuid.UUID) ([]*Role, error)
	ListBySuperviseeRole(ctx context.Context, roleID uuid.UUID) ([]*Role, error)
}
