package person

import (
	"time"

	"github.com/google/uuid"
)

// Person maps to the person table. A person becomes a patient when the
// patient flag is set, and a provider when a role-bound provider record
// exists for them (see the provider package).
type Person struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	NameFamily *string    `db:"name_family" json:"name_family,omitempty"`
	NameGiven  *string    `db:"name_given" json:"name_given,omitempty"`
	Gender     *string    `db:"gender" json:"gender,omitempty"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Patient    bool       `db:"patient" json:"patient"`
	Voided     bool       `db:"voided" json:"voided"`
	VoidReason *string    `db:"void_reason" json:"void_reason,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName returns "Given Family" with whichever parts are present.
func (p *Person) DisplayName() string {
	switch {
	case p.NameGiven != nil && p.NameFamily != nil:
		return *p.NameGiven + " " + *p.NameFamily
	case p.NameGiven != nil:
		return *p.NameGiven
	case p.NameFamily != nil:
		return *p.NameFamily
	}
	return p.ID.String()
}
