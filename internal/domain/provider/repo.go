package provider

import (
	"context"

	"github.com/google/uuid"
)

type ProviderRepository interface {
	// GetByPerson returns the person's non-retired provider records with
	// their role attribute resolved against the given attribute type.
	GetByPerson(ctx context.Context, attributeTypeID, personID uuid.UUID) ([]*Provider, error)
	// ListByAttribute returns non-retired providers whose attribute of
	// the given type carries the given role value.
	ListByAttribute(ctx context.Context, attributeTypeID, roleID uuid.UUID) ([]*Provider, error)
	// Save persists the provider record and its role attribute.
	Save(ctx context.Context, attributeTypeID uuid.UUID, p *Provider) error
	Retire(ctx context.Context, id uuid.UUID, reason string) error
	GetAttributeTypeByUUID(ctx context.Context, wellKnownUUID string) (*AttributeType, error)
}
