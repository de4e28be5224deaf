package provider

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

var ErrAttributeTypeMissing = errors.New("provider role attribute type is not configured")

// Service resolves the role attribute binding of persons. The
// role-attribute-type descriptor is configuration, not data: it is
// resolved on first use and cached for the life of the process. Racing
// resolvers may each compute it; the last store wins and all results
// are identical, so no lock is taken.
type Service struct {
	providers ProviderRepository
	attrType  atomic.Pointer[AttributeType]
}

func NewService(providers ProviderRepository) *Service {
	return &Service{providers: providers}
}

// RoleAttributeType returns the cached role-attribute-type descriptor,
// resolving it from storage on first use.
func (s *Service) RoleAttributeType(ctx context.Context) (*AttributeType, error) {
	if at := s.attrType.Load(); at != nil {
		return at, nil
	}
	at, err := s.providers.GetAttributeTypeByUUID(ctx, RoleAttributeTypeUUID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAttributeTypeMissing, err)
	}
	s.attrType.Store(at)
	return at, nil
}

// ProvidersByPerson returns the person's active provider records.
func (s *Service) ProvidersByPerson(ctx context.Context, personID uuid.UUID) ([]*Provider, error) {
	at, err := s.RoleAttributeType(ctx)
	if err != nil {
		return nil, err
	}
	return s.providers.GetByPerson(ctx, at.ID, personID)
}

// ProvidersByRole returns active providers carrying the role's
// attribute value.
func (s *Service) ProvidersByRole(ctx context.Context, roleID uuid.UUID) ([]*Provider, error) {
	at, err := s.RoleAttributeType(ctx)
	if err != nil {
		return nil, err
	}
	return s.providers.ListByAttribute(ctx, at.ID, roleID)
}

// RoleOf resolves the role currently bound to the person's provider
// record, or uuid.Nil when the person has no provider record or no
// role attribute.
func (s *Service) RoleOf(ctx context.Context, personID uuid.UUID) (uuid.UUID, error) {
	providers, err := s.ProvidersByPerson(ctx, personID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, p := range providers {
		if p.RoleID != uuid.Nil {
			return p.RoleID, nil
		}
	}
	return uuid.Nil, nil
}

// HasRole reports whether any of the person's active provider records
// resolves to the given role.
func (s *Service) HasRole(ctx context.Context, personID, roleID uuid.UUID) (bool, error) {
	providers, err := s.ProvidersByPerson(ctx, personID)
	if err != nil {
		return false, err
	}
	for _, p := range providers {
		if p.RoleID == roleID {
			return true, nil
		}
	}
	return false, nil
}

// IsProvider reports whether the person has at least one active
// provider record with a resolvable role.
func (s *Service) IsProvider(ctx context.Context, personID uuid.UUID) (bool, error) {
	providers, err := s.ProvidersByPerson(ctx, personID)
	if err != nil {
		return false, err
	}
	for _, p := range providers {
		if p.RoleID != uuid.Nil {
			return true, nil
		}
	}
	return false, nil
}

// SaveProvider persists a provider record with its role binding.
func (s *Service) SaveProvider(ctx context.Context, p *Provider) error {
	at, err := s.RoleAttributeType(ctx)
	if err != nil {
		return err
	}
	return s.providers.Save(ctx, at.ID, p)
}

// RetireProvider closes a provider record.
func (s *Service) RetireProvider(ctx context.Context, id uuid.UUID, reason string) error {
	return s.providers.Retire(ctx, id, reason)
}
