package provider

import (
	"time"

	"github.com/google/uuid"
)

// RoleAttributeTypeUUID is the well-known identifier of the attribute
// type that binds a provider record to its role. It is configuration,
// seeded by the initial migration, and static for the life of the
// process.
const RoleAttributeTypeUUID = "9c5d1a4e-71f2-4d4d-8c50-4e8f0a7b6b31"

// AttributeType describes a provider attribute. The only one the
// assignment engine cares about is the role binding.
type AttributeType struct {
	ID   uuid.UUID `db:"id" json:"id"`
	UUID string    `db:"uuid" json:"uuid"`
	Name string    `db:"name" json:"name"`
}

// Provider is a person record augmented with a role attribute. A person
// may carry several provider records over time; retired records are
// excluded from active queries but persist.
type Provider struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PersonID     uuid.UUID  `db:"person_id" json:"person_id"`
	Identifier   string     `db:"identifier" json:"identifier"`
	RoleID       uuid.UUID  `json:"role_id"` // resolved role attribute; uuid.Nil when absent
	Retired      bool       `db:"retired" json:"retired"`
	RetireReason *string    `db:"retire_reason" json:"retire_reason,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	RetiredAt    *time.Time `db:"retired_at" json:"retired_at,omitempty"`
}
