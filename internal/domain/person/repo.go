package person

import (
	"context"

	"github.com/google/uuid"
)

type PersonRepository interface {
	Create(ctx context.Context, p *Person) error
	GetByID(ctx context.Context, id uuid.UUID) (*Person, error)
	Update(ctx context.Context, p *Person) error
	Void(ctx context.Context, id uuid.UUID, reason string) error
	List(ctx context.Context, patientsOnly bool, limit, offset int) ([]*Person, int, error)
}
