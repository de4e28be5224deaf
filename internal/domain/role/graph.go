package role

import (
	"github.com/google/uuid"

	"github.com/carehq/careassign/internal/domain/relationship"
)

// Graph is a bidirectional index over the role catalog: role to
// supported relationship types, relationship type to supporting roles,
// and supervisee role to supervising roles. It is built from a single
// catalog scan so engine queries never re-walk the full catalog.
type Graph struct {
	rolesByID        map[uuid.UUID]*Role
	typesByID        map[uuid.UUID]*relationship.RelationshipType
	typesByRole      map[uuid.UUID][]*relationship.RelationshipType
	rolesByType      map[uuid.UUID][]*Role
	supervisorsByRole map[uuid.UUID][]*Role
}

// BuildGraph indexes the given roles against the relationship-type
// catalog. Type ids a role references but the catalog does not contain
// are skipped.
func BuildGraph(roles []*Role, types []*relationship.RelationshipType) *Graph {
	g := &Graph{
		rolesByID:        make(map[uuid.UUID]*Role, len(roles)),
		typesByID:        make(map[uuid.UUID]*relationship.RelationshipType, len(types)),
		typesByRole:      make(map[uuid.UUID][]*relationship.RelationshipType, len(roles)),
		rolesByType:      make(map[uuid.UUID][]*Role),
		supervisorsByRole: make(map[uuid.UUID][]*Role),
	}
	for _, t := range types {
		g.typesByID[t.ID] = t
	}
	for _, r := range roles {
		g.rolesByID[r.ID] = r
		for _, typeID := range r.RelationshipTypeIDs {
			t, ok := g.typesByID[typeID]
			if !ok {
				continue
			}
			g.typesByRole[r.ID] = append(g.typesByRole[r.ID], t)
			g.rolesByType[typeID] = append(g.rolesByType[typeID], r)
		}
		for _, superviseeID := range r.SuperviseeRoleIDs {
			g.supervisorsByRole[superviseeID] = append(g.supervisorsByRole[superviseeID], r)
		}
	}
	return g
}

// Role returns the indexed role, or nil.
func (g *Graph) Role(id uuid.UUID) *Role {
	return g.rolesByID[id]
}

// TypesForRole returns the relationship types the role supports.
// Retired types are excluded unless includeRetired is set; the filter
// is on the type's retired flag, not the role's.
func (g *Graph) TypesForRole(roleID uuid.UUID, includeRetired bool) []*relationship.RelationshipType {
	var out []*relationship.RelationshipType
	for _, t := range g.typesByRole[roleID] {
		if t.Retired && !includeRetired {
			continue
		}
		out = append(out, t)
	}
	return out
}

// RolesForType returns the roles that support the given relationship
// type.
func (g *Graph) RolesForType(typeID uuid.UUID) []*Role {
	return g.rolesByType[typeID]
}

// Supervisors returns the roles whose superviseable-role set contains
// roleID.
func (g *Graph) Supervisors(roleID uuid.UUID) []*Role {
	return g.supervisorsByRole[roleID]
}

// AllProviderTypes returns the deduplicated union of every role's
// supported relationship types. This set is the authoritative
// definition of "provider/patient relationship type": every member is
// accepted by TypesForRole of at least one role.
func (g *Graph) AllProviderTypes(includeRetired bool) []*relationship.RelationshipType {
	seen := make(map[uuid.UUID]bool)
	var out []*relationship.RelationshipType
	for roleID := range g.typesByRole {
		for _, t := range g.TypesForRole(roleID, includeRetired) {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out = append(out, t)
		}
	}
	return out
}
