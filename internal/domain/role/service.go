package role

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carehq/careassign/internal/domain/relationship"
)

var (
	ErrRoleNotFound    = errors.New("provider role not found")
	ErrRoleNameMissing = errors.New("role name is required")
)

// Service is the role catalog plus the graph queries the assignment
// engine drives its validation from.
type Service struct {
	roles RoleRepository
	types relationship.TypeRepository
}

func NewService(roles RoleRepository, types relationship.TypeRepository) *Service {
	return &Service{roles: roles, types: types}
}

// Graph builds the bidirectional role/type index from one catalog scan.
// Retired roles are included: a retired role's non-retired types remain
// provider/patient types.
func (s *Service) Graph(ctx context.Context) (*Graph, error) {
	roles, err := s.roles.List(ctx, true)
	if err != nil {
		return nil, err
	}
	types, err := s.types.ListTypes(ctx, true)
	if err != nil {
		return nil, err
	}
	return BuildGraph(roles, types), nil
}

func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (*Role, error) {
	r, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, ErrRoleNotFound
	}
	return r, nil
}

func (s *Service) ListRoles(ctx context.Context, includeRetired bool) ([]*Role, error) {
	return s.roles.List(ctx, includeRetired)
}

func (s *Service) SaveRole(ctx context.Context, r *Role) error {
	if r.Name == "" {
		return ErrRoleNameMissing
	}
	return s.roles.Save(ctx, r)
}

func (s *Service) RetireRole(ctx context.Context, id uuid.UUID, reason string) error {
	if _, err := s.GetRole(ctx, id); err != nil {
		return err
	}
	return s.roles.Retire(ctx, id, reason)
}

func (s *Service) UnretireRole(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetRole(ctx, id); err != nil {
		return err
	}
	return s.roles.Unretire(ctx, id)
}

func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return s.roles.Delete(ctx, id)
}

// ListRelationshipTypes returns the relationship-type catalog. The
// catalog is read-only here; types are defined by administrators
// outside this service.
func (s *Service) ListRelationshipTypes(ctx context.Context, includeRetired bool) ([]*relationship.RelationshipType, error) {
	return s.types.ListTypes(ctx, includeRetired)
}

// RolesSupporting returns the roles whose supported-type set contains
// the given relationship type.
func (s *Service) RolesSupporting(ctx context.Context, typeID uuid.UUID) ([]*Role, error) {
	return s.roles.ListBySupportedType(ctx, typeID)
}

// RolesSupervising returns the roles that may supervise holders of the
// given role.
func (s *Service) RolesSupervising(ctx context.Context, roleID uuid.UUID) ([]*Role, error) {
	return s.roles.ListBySuperviseeRole(ctx, roleID)
}

// RelationshipTypesForRole returns the provider/patient relationship
// types the role supports, excluding retired types unless requested.
func (s *Service) RelationshipTypesForRole(ctx context.Context, roleID uuid.UUID, includeRetired bool) ([]*relationship.RelationshipType, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	if g.Role(roleID) == nil {
		return nil, ErrRoleNotFound
	}
	return g.TypesForRole(roleID, includeRetired), nil
}

// AllProviderRelationshipTypes returns the union of every role's
// supported types, deduplicated. The set defines which relationship
// types belong to the provider/patient domain.
func (s *Service) AllProviderRelationshipTypes(ctx context.Context, includeRetired bool) ([]*relationship.RelationshipType, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return g.AllProviderTypes(includeRetired), nil
}
