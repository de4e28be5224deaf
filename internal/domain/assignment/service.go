package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carehq/careassign/internal/domain/person"
	"github.com/carehq/careassign/internal/domain/provider"
	"github.com/carehq/careassign/internal/domain/relationship"
	"github.com/carehq/careassign/internal/domain/role"
)

// Service is the assignment engine. It validates role/relationship-type
// compatibility against the role graph and manages the open/closed
// lifecycle of provider-patient relationship intervals.
//
// The engine holds no durable state of its own; the stores are the
// arbiters of consistency. Bulk operations are deliberately not wrapped
// in one cross-record transaction: each patient's assign/unassign pair
// is its own unit, so an interrupted transfer leaves per-patient
// resumable progress, never a torn single interval.
type Service struct {
	persons   *person.Service
	providers *provider.Service
	roles     *role.Service
	rels      relationship.RelationshipRepository
	types     relationship.TypeRepository
}

func NewService(
	persons *person.Service,
	providers *provider.Service,
	roles *role.Service,
	rels relationship.RelationshipRepository,
	types relationship.TypeRepository,
) *Service {
	return &Service{
		persons:   persons,
		providers: providers,
		roles:     roles,
		rels:      rels,
		types:     types,
	}
}

// resolveDate applies the "zero means caller's now" convention and
// strips the time-of-day component. Intervals are tracked at day
// granularity.
func resolveDate(on time.Time) time.Time {
	if on.IsZero() {
		on = time.Now()
	}
	return relationship.DateOnly(on)
}

func (s *Service) requireProvider(ctx context.Context, personID uuid.UUID) (*person.Person, error) {
	p, err := s.persons.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	ok, err := s.providers.IsProvider(ctx, personID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: person %s", ErrNotProvider, personID)
	}
	return p, nil
}

// supportsType reports whether any of the person's active role bindings
// supports the relationship type.
func (s *Service) supportsType(ctx context.Context, g *role.Graph, personID, typeID uuid.UUID) (bool, error) {
	providers, err := s.providers.ProvidersByPerson(ctx, personID)
	if err != nil {
		return false, err
	}
	for _, p := range providers {
		if p.RoleID == uuid.Nil {
			continue
		}
		if r := g.Role(p.RoleID); r != nil && r.SupportsRelationshipType(typeID) {
			return true, nil
		}
	}
	return false, nil
}

// isProviderPatientType reports whether the type belongs to the
// provider/patient domain, i.e. at least one role supports it.
func isProviderPatientType(g *role.Graph, typeID uuid.UUID) bool {
	for _, t := range g.AllProviderTypes(false) {
		if t.ID == typeID {
			return true
		}
	}
	return false
}

// AssignPatient opens a relationship interval between the provider and
// the patient. Preconditions are checked in order, each with a distinct
// failure kind; no state is mutated when any of them fails. The
// interval's start date is the given date with the time-of-day
// stripped; the zero date means now.
func (s *Service) AssignPatient(ctx context.Context, patientID, providerID, typeID uuid.UUID, on time.Time) (*relationship.Relationship, error) {
	if _, err := s.persons.GetPatient(ctx, patientID); err != nil {
		return nil, err
	}
	if _, err := s.persons.GetPerson(ctx, providerID); err != nil {
		return nil, err
	}
	if _, err := s.types.GetType(ctx, typeID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeID)
	}
	if ok, err := s.providers.IsProvider(ctx, providerID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: person %s", ErrNotProvider, providerID)
	}
	g, err := s.roles.Graph(ctx)
	if err != nil {
		return nil, err
	}
	if ok, err := s.supportsType(ctx, g, providerID, typeID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: provider %s, type %s", ErrRoleNotSupported, providerID, typeID)
	}

	date := resolveDate(on)
	existing, err := s.rels.Find(ctx, relationship.Query{
		PersonAID: &providerID, PersonBID: &patientID, TypeID: &typeID, AsOf: &date,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: provider %s, patient %s, type %s",
			ErrAlreadyAssigned, providerID, patientID, typeID)
	}

	rel := &relationship.Relationship{
		ID:        uuid.New(),
		PersonAID: providerID,
		PersonBID: patientID,
		TypeID:    typeID,
		StartDate: date,
	}
	if err := s.rels.Save(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// UnassignPatient closes the single open interval for the triple as of
// the given date. Zero open intervals is ErrNotAssigned; more than one
// is a consistency violation and is never auto-repaired.
func (s *Service) UnassignPatient(ctx context.Context, patientID, providerID, typeID uuid.UUID, on time.Time) error {
	if _, err := s.persons.GetPatient(ctx, patientID); err != nil {
		return err
	}
	if _, err := s.persons.GetPerson(ctx, providerID); err != nil {
		return err
	}
	if _, err := s.types.GetType(ctx, typeID); err != nil {
		return fmt.Errorf("%w: %s", ErrTypeNotFound, typeID)
	}
	if ok, err := s.providers.IsProvider(ctx, providerID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: person %s", ErrNotProvider, providerID)
	}
	// Unassignment does not require the provider's own role to support
	// the type, only that the type belongs to the provider/patient
	// domain at all.
	g, err := s.roles.Graph(ctx)
	if err != nil {
		return err
	}
	if !isProviderPatientType(g, typeID) {
		return fmt.Errorf("%w: %s", ErrInvalidRelationshipType, typeID)
	}

	date := resolveDate(on)
	open, err := s.rels.Find(ctx, relationship.Query{
		PersonAID: &providerID, PersonBID: &patientID, TypeID: &typeID, AsOf: &date,
	})
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return fmt.Errorf("%w: provider %s, patient %s, type %s",
			ErrNotAssigned, providerID, patientID, typeID)
	}
	if len(open) > 1 {
		return consistencyf(nil, "%d open %s intervals between provider %s and patient %s, at most one may exist",
			len(open), typeID, providerID, patientID)
	}

	rel := open[0]
	rel.EndDate = &date
	return s.rels.Save(ctx, rel)
}

// AssignRoleToProvider binds a role to a person, creating a provider
// record carrying the role attribute. A no-op when the person already
// holds the role. A person holds at most one role at a time: provider
// records bound to a different role are retired before the new record
// is created.
func (s *Service) AssignRoleToProvider(ctx context.Context, personID, roleID uuid.UUID, identifier string) error {
	if identifier == "" {
		return ErrIdentifierRequired
	}
	p, err := s.persons.GetPerson(ctx, personID)
	if err != nil {
		return err
	}
	if p.Voided {
		return person.ErrPersonVoided
	}
	r, err := s.roles.GetRole(ctx, roleID)
	if err != nil {
		return err
	}

	has, err := s.providers.HasRole(ctx, personID, roleID)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	existing, err := s.providers.ProvidersByPerson(ctx, personID)
	if err != nil {
		return err
	}
	for _, prov := range existing {
		if prov.RoleID != uuid.Nil && prov.RoleID != roleID {
			reason := fmt.Sprintf("replacing provider role with %s", r.Name)
			if err := s.providers.RetireProvider(ctx, prov.ID, reason); err != nil {
				return err
			}
		}
	}

	return s.providers.SaveProvider(ctx, &provider.Provider{
		PersonID:   personID,
		Identifier: identifier,
		RoleID:     roleID,
	})
}

// UnassignRoleFromProvider retires every provider record of the person
// that currently resolves to the role. A no-op when the person does not
// hold the role.
func (s *Service) UnassignRoleFromProvider(ctx context.Context, personID, roleID uuid.UUID) error {
	if _, err := s.persons.GetPerson(ctx, personID); err != nil {
		return err
	}
	r, err := s.roles.GetRole(ctx, roleID)
	if err != nil {
		return err
	}

	has, err := s.providers.HasRole(ctx, personID, roleID)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}

	providers, err := s.providers.ProvidersByPerson(ctx, personID)
	if err != nil {
		return err
	}
	for _, prov := range providers {
		if prov.RoleID == roleID {
			reason := fmt.Sprintf("removing provider role %s from %s", r.Name, personID)
			if err := s.providers.RetireProvider(ctx, prov.ID, reason); err != nil {
				return err
			}
		}
	}
	return nil
}

// Patients returns the patients with an open interval to the provider
// on the given date, deduplicated by person identity with voided
// patients excluded. typeID of uuid.Nil aggregates across every
// provider/patient relationship type.
func (s *Service) Patients(ctx context.Context, providerID, typeID uuid.UUID, on time.Time) ([]*person.Person, error) {
	if _, err := s.requireProvider(ctx, providerID); err != nil {
		return nil, err
	}
	g, err := s.roles.Graph(ctx)
	if err != nil {
		return nil, err
	}
	date := resolveDate(on)

	var typeIDs []uuid.UUID
	if typeID != uuid.Nil {
		if !isProviderPatientType(g, typeID) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRelationshipType, typeID)
		}
		typeIDs = []uuid.UUID{typeID}
	} else {
		for _, t := range g.AllProviderTypes(false) {
			typeIDs = append(typeIDs, t.ID)
		}
	}

	seen := make(map[uuid.UUID]bool)
	patients := []*person.Person{}
	for _, tid := range typeIDs {
		tid := tid
		rels, err := s.rels.Find(ctx, relationship.Query{
			PersonAID: &providerID, TypeID: &tid, AsOf: &date,
		})
		if err != nil {
			return nil, err
		}
		for _, rel := range rels {
			p, err := s.persons.GetPerson(ctx, rel.PersonBID)
			if err != nil {
				return nil, consistencyf(err, "relationship %s references missing person %s", rel.ID, rel.PersonBID)
			}
			if !p.Patient {
				return nil, consistencyf(nil, "relationship %s: person B %s must be a patient", rel.ID, p.ID)
			}
			if p.Voided || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			patients = append(patients, p)
		}
	}
	return patients, nil
}

// UnassignAllPatients closes every open interval of the provider for
// the type (or, with uuid.Nil, every provider/patient type) as of
// today. Having nothing to close is not an error.
func (s *Service) UnassignAllPatients(ctx context.Context, providerID, typeID uuid.UUID) error {
	if _, err := s.requireProvider(ctx, providerID); err != nil {
		return err
	}
	g, err := s.roles.Graph(ctx)
	if err != nil {
		return err
	}

	var typeIDs []uuid.UUID
	if typeID != uuid.Nil {
		if !isProviderPatientType(g, typeID) {
			return fmt.Errorf("%w: %s", ErrInvalidRelationshipType, typeID)
		}
		typeIDs = []uuid.UUID{typeID}
	} else {
		for _, t := range g.AllProviderTypes(false) {
			typeIDs = append(typeIDs, t.ID)
		}
	}

	today := relationship.DateOnly(time.Now())
	for _, tid := range typeIDs {
		tid := tid
		open, err := s.rels.Find(ctx, relationship.Query{
			PersonAID: &providerID, TypeID: &tid, AsOf: &today,
		})
		if err != nil {
			return err
		}
		for _, rel := range open {
			end := today
			rel.EndDate = &end
			if err := s.rels.Save(ctx, rel); err != nil {
				return err
			}
		}
	}
	return nil
}

// TransferAllPatients moves every patient of the source provider to the
// destination for the type (or, with uuid.Nil, every provider/patient
// type). Per patient, the destination assignment is made first — an
// existing assignment there is fine and skipped — then the source
// assignment is closed. A close failure is escalated as a consistency
// violation: the snapshot just proved the patient assigned to the
// source, so the failure means concurrent mutation or an internal bug.
//
// There is no cross-patient transaction; an interrupted transfer leaves
// some patients moved and the rest untouched, and re-running it
// completes the remainder.
func (s *Service) TransferAllPatients(ctx context.Context, sourceID, destinationID, typeID uuid.UUID) error {
	if _, err := s.persons.GetPerson(ctx, sourceID); err != nil {
		return err
	}
	if _, err := s.persons.GetPerson(ctx, destinationID); err != nil {
		return err
	}
	if ok, err := s.providers.IsProvider(ctx, sourceID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: person %s", ErrNotProvider, sourceID)
	}
	if ok, err := s.providers.IsProvider(ctx, destinationID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: person %s", ErrNotProvider, destinationID)
	}
	if sourceID == destinationID {
		return fmt.Errorf("%w: %s", ErrSameProvider, sourceID)
	}

	var typeIDs []uuid.UUID
	allTypes := typeID == uuid.Nil
	if allTypes {
		g, err := s.roles.Graph(ctx)
		if err != nil {
			return err
		}
		for _, t := range g.AllProviderTypes(false) {
			typeIDs = append(typeIDs, t.ID)
		}
	} else {
		typeIDs = []uuid.UUID{typeID}
	}

	for _, tid := range typeIDs {
		err := s.transferType(ctx, sourceID, destinationID, tid)
		if allTypes && errors.Is(err, ErrInvalidRelationshipType) {
			// The type set came from the role graph itself, so every
			// member is a provider/patient type by construction.
			return consistencyf(err, "derived type %s rejected during transfer", tid)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) transferType(ctx context.Context, sourceID, destinationID, typeID uuid.UUID) error {
	patients, err := s.Patients(ctx, sourceID, typeID, time.Time{})
	if err != nil {
		return err
	}
	for _, pat := range patients {
		_, err := s.AssignPatient(ctx, pat.ID, destinationID, typeID, time.Time{})
		if err != nil && !errors.Is(err, ErrAlreadyAssigned) {
			return err
		}
		if err := s.UnassignPatient(ctx, pat.ID, sourceID, typeID, time.Time{}); err != nil {
			// The snapshot proved this patient assigned to the source.
			return consistencyf(err, "patient %s could not be unassigned from source provider %s during transfer",
				pat.ID, sourceID)
		}
	}
	return nil
}

// ProvidersByRoles returns the persons holding any of the given roles,
// deduplicated by person identity. An empty role set is rejected.
func (s *Service) ProvidersByRoles(ctx context.Context, roleIDs []uuid.UUID) ([]*person.Person, error) {
	if len(roleIDs) == 0 {
		return nil, ErrNoRoles
	}
	seen := make(map[uuid.UUID]bool)
	persons := []*person.Person{}
	for _, roleID := range roleIDs {
		if _, err := s.roles.GetRole(ctx, roleID); err != nil {
			return nil, err
		}
		providers, err := s.providers.ProvidersByRole(ctx, roleID)
		if err != nil {
			return nil, err
		}
		for _, prov := range providers {
			if seen[prov.PersonID] {
				continue
			}
			seen[prov.PersonID] = true
			p, err := s.persons.GetPerson(ctx, prov.PersonID)
			if err != nil {
				return nil, err
			}
			persons = append(persons, p)
		}
	}
	return persons, nil
}

// ProvidersByRole returns the persons holding the given role.
func (s *Service) ProvidersByRole(ctx context.Context, roleID uuid.UUID) ([]*person.Person, error) {
	return s.ProvidersByRoles(ctx, []uuid.UUID{roleID})
}

// ProvidersByRelationshipType returns the persons whose role supports
// the given relationship type. No role supporting the type yields an
// empty result, not an error.
func (s *Service) ProvidersByRelationshipType(ctx context.Context, typeID uuid.UUID) ([]*person.Person, error) {
	if _, err := s.types.GetType(ctx, typeID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeID)
	}
	roles, err := s.roles.RolesSupporting(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []*person.Person{}, nil
	}
	ids := make([]uuid.UUID, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	return s.ProvidersByRoles(ctx, ids)
}

// ProvidersBySuperviseeRole returns the persons holding a role that may
// supervise the given role.
func (s *Service) ProvidersBySuperviseeRole(ctx context.Context, roleID uuid.UUID) ([]*person.Person, error) {
	if _, err := s.roles.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	roles, err := s.roles.RolesSupervising(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []*person.Person{}, nil
	}
	ids := make([]uuid.UUID, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	return s.ProvidersByRoles(ctx, ids)
}
