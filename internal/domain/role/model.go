package role

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named capability set for providers: the provider/patient
// relationship types it supports and the roles its holders may
// supervise. Roles are created by administrators; the assignment engine
// only reads them.
type Role struct {
	ID                  uuid.UUID   `db:"id" json:"id"`
	Name                string      `db:"name" json:"name"`
	Description         *string     `db:"description" json:"description,omitempty"`
	RelationshipTypeIDs []uuid.UUID `json:"relationship_type_ids"`
	SuperviseeRoleIDs   []uuid.UUID `json:"supervisee_role_ids"`
	Retired             bool        `db:"retired" json:"retired"`
	RetireReason        *string     `db:"retire_reason" json:"retire_reason,omitempty"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"`
}

// SupportsRelationshipType reports whether the role lists the type as a
// supported provider/patient relationship type.
func (r *Role) SupportsRelationshipType(typeID uuid.UUID) bool {
	for _, id := range r.RelationshipTypeIDs {
		if id == typeID {
			return true
		}
	}
	return false
}

// CanSuperviseRole reports whether the role lists roleID as
// superviseable.
func (r *Role) CanSuperviseRole(roleID uuid.UUID) bool {
	for _, id := range r.SuperviseeRoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
