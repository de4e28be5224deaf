package relationship

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipType is a directional edge label between two persons
// (person A is the provider side, person B the patient side). Types are
// defined by administrators; the assignment engine only filters and
// unions them, it never creates them.
type RelationshipType struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AIsToB    string    `db:"a_is_to_b" json:"a_is_to_b"`
	BIsToA    string    `db:"b_is_to_a" json:"b_is_to_a"`
	Retired   bool      `db:"retired" json:"retired"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Relationship is a directed, typed, date-bounded edge between two
// persons. An edge with a nil end date, or an end date after the query
// date, is open as of that date.
type Relationship struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PersonAID uuid.UUID  `db:"person_a_id" json:"person_a_id"`
	PersonBID uuid.UUID  `db:"person_b_id" json:"person_b_id"`
	TypeID    uuid.UUID  `db:"type_id" json:"type_id"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	Voided    bool       `db:"voided" json:"voided"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// OpenOn reports whether the relationship is open as of the given date:
// started on or before it, with no end date or an end date still in the
// future. An interval is closed as of its own end date.
func (r *Relationship) OpenOn(date time.Time) bool {
	if r.Voided {
		return false
	}
	d := DateOnly(date)
	if r.StartDate.After(d) {
		return false
	}
	return r.EndDate == nil || r.EndDate.After(d)
}

// Query filters relationships. Nil fields are unconstrained. AsOf, when
// set, restricts results to relationships open on that date.
type Query struct {
	PersonAID *uuid.UUID
	PersonBID *uuid.UUID
	TypeID    *uuid.UUID
	AsOf      *time.Time
}

// Matches reports whether r satisfies every set filter of q. Voided
// relationships never match.
func (q Query) Matches(r *Relationship) bool {
	if r.Voided {
		return false
	}
	if q.PersonAID != nil && r.PersonAID != *q.PersonAID {
		return false
	}
	if q.PersonBID != nil && r.PersonBID != *q.PersonBID {
		return false
	}
	if q.TypeID != nil && r.TypeID != *q.TypeID {
		return false
	}
	if q.AsOf != nil && !r.OpenOn(*q.AsOf) {
		return false
	}
	return true
}

// DateOnly strips the time-of-day component, keeping the calendar date
// in the value's location. Assignment intervals are tracked at day
// granularity.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
