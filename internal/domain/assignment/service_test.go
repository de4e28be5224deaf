package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carehq/careassign/internal/domain/person"
	"github.com/carehq/careassign/internal/domain/provider"
	"github.com/carehq/careassign/internal/domain/relationship"
	"github.com/carehq/careassign/internal/domain/role"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// In-memory stores backing the real domain services. The engine is
// exercised through the same service layer the server wires up.

type memPersonRepo struct {
	persons map[uuid.UUID]*person.Person
}

func (m *memPersonRepo) Create(_ context.Context, p *person.Person) error {
	m.persons[p.ID] = p
	return nil
}

func (m *memPersonRepo) GetByID(_ context.Context, id uuid.UUID) (*person.Person, error) {
	p, ok := m.persons[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return p, nil
}

func (m *memPersonRepo) Update(_ context.Context, p *person.Person) error {
	m.persons[p.ID] = p
	return nil
}

func (m *memPersonRepo) Void(_ context.Context, id uuid.UUID, reason string) error {
	m.persons[id].Voided = true
	m.persons[id].VoidReason = &reason
	return nil
}

func (m *memPersonRepo) List(_ context.Context, patientsOnly bool, limit, offset int) ([]*person.Person, int, error) {
	var out []*person.Person
	for _, p := range m.persons {
		if p.Voided || (patientsOnly && !p.Patient) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

type memProviderRepo struct {
	attrType  *provider.AttributeType
	providers map[uuid.UUID]*provider.Provider
}

func (m *memProviderRepo) GetByPerson(_ context.Context, _, personID uuid.UUID) ([]*provider.Provider, error) {
	var out []*provider.Provider
	for _, p := range m.providers {
		if p.PersonID == personID && !p.Retired {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProviderRepo) ListByAttribute(_ context.Context, _, roleID uuid.UUID) ([]*provider.Provider, error) {
	var out []*provider.Provider
	for _, p := range m.providers {
		if p.RoleID == roleID && !p.Retired {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProviderRepo) Save(_ context.Context, _ uuid.UUID, p *provider.Provider) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.providers[p.ID] = p
	return nil
}

func (m *memProviderRepo) Retire(_ context.Context, id uuid.UUID, reason string) error {
	p, ok := m.providers[id]
	if !ok {
		return errors.New("no rows")
	}
	p.Retired = true
	p.RetireReason = &reason
	return nil
}

func (m *memProviderRepo) GetAttributeTypeByUUID(_ context.Context, wellKnownUUID string) (*provider.AttributeType, error) {
	if wellKnownUUID != m.attrType.UUID {
		return nil, errors.New("no rows")
	}
	return m.attrType, nil
}

type memRoleRepo struct {
	roles map[uuid.UUID]*role.Role
}

func (m *memRoleRepo) GetByID(_ context.Context, id uuid.UUID) (*role.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return r, nil
}

func (m *memRoleRepo) List(_ context.Context, includeRetired bool) ([]*role.Role, error) {
	var out []*role.Role
	for _, r := range m.roles {
		if r.Retired && !includeRetired {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memRoleRepo) Save(_ context.Context, r *role.Role) error {
	m.roles[r.ID] = r
	return nil
}

func (m *memRoleRepo) Retire(_ context.Context, id uuid.UUID, reason string) error {
	m.roles[id].Retired = true
	return nil
}

func (m *memRoleRepo) Unretire(_ context.Context, id uuid.UUID) error {
	m.roles[id].Retired = false
	return nil
}

func (m *memRoleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.roles, id)
	return nil
}

func (m *memRoleRepo) ListBySupportedType(_ context.Context, typeID uuid.UUID) ([]*role.Role, error) {
	var out []*role.Role
	for _, r := range m.roles {
		if r.SupportsRelationshipType(typeID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRoleRepo) ListBySuperviseeRole(_ context.Context, roleID uuid.UUID) ([]*role.Role, error) {
	var out []*role.Role
	for _, r := range m.roles {
		if r.CanSuperviseRole(roleID) {
			out = append(out, r)
		}
	}
	return out, nil
}

type memTypeRepo struct {
	types map[uuid.UUID]*relationship.RelationshipType
}

func (m *memTypeRepo) GetType(_ context.Context, id uuid.UUID) (*relationship.RelationshipType, error) {
	t, ok := m.types[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return t, nil
}

func (m *memTypeRepo) ListTypes(_ context.Context, includeRetired bool) ([]*relationship.RelationshipType, error) {
	var out []*relationship.RelationshipType
	for _, t := range m.types {
		if t.Retired && !includeRetired {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type memRelRepo struct {
	rels map[uuid.UUID]*relationship.Relationship
}

func (m *memRelRepo) Find(_ context.Context, q relationship.Query) ([]*relationship.Relationship, error) {
	var out []*relationship.Relationship
	for _, r := range m.rels {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRelRepo) Save(_ context.Context, r *relationship.Relationship) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.rels[r.ID] = r
	return nil
}

// fixture wires the in-memory stores into the real services with a
// small standing catalog: primary care (doctors and nurses), surgical
// care (doctors only), and doctors supervising nurses.
type fixture struct {
	persons   *memPersonRepo
	providers *memProviderRepo
	roles     *memRoleRepo
	types     *memTypeRepo
	rels      *memRelRepo

	primary  *relationship.RelationshipType
	surgical *relationship.RelationshipType
	doctor   *role.Role
	nurse    *role.Role

	svc *Service
}

func newFixture() *fixture {
	f := &fixture{
		persons: &memPersonRepo{persons: make(map[uuid.UUID]*person.Person)},
		providers: &memProviderRepo{
			attrType:  &provider.AttributeType{ID: uuid.New(), UUID: provider.RoleAttributeTypeUUID, Name: "Provider Role"},
			providers: make(map[uuid.UUID]*provider.Provider),
		},
		roles: &memRoleRepo{roles: make(map[uuid.UUID]*role.Role)},
		types: &memTypeRepo{types: make(map[uuid.UUID]*relationship.RelationshipType)},
		rels:  &memRelRepo{rels: make(map[uuid.UUID]*relationship.Relationship)},
	}

	f.primary = &relationship.RelationshipType{ID: uuid.New(), AIsToB: "Primary Care Provider", BIsToA: "Patient"}
	f.surgical = &relationship.RelationshipType{ID: uuid.New(), AIsToB: "Surgeon", BIsToA: "Patient"}
	f.types.types[f.primary.ID] = f.primary
	f.types.types[f.surgical.ID] = f.surgical

	f.nurse = &role.Role{ID: uuid.New(), Name: "Nurse", RelationshipTypeIDs: []uuid.UUID{f.primary.ID}}
	f.doctor = &role.Role{
		ID:                  uuid.New(),
		Name:                "Doctor",
		RelationshipTypeIDs: []uuid.UUID{f.primary.ID, f.surgical.ID},
		SuperviseeRoleIDs:   []uuid.UUID{f.nurse.ID},
	}
	f.roles.roles[f.nurse.ID] = f.nurse
	f.roles.roles[f.doctor.ID] = f.doctor

	personSvc := person.NewService(f.persons)
	providerSvc := provider.NewService(f.providers)
	roleSvc := role.NewService(f.roles, f.types)
	f.svc = NewService(personSvc, providerSvc, roleSvc, f.rels, f.types)
	return f
}

func (f *fixture) addPatient() *person.Person {
	p := &person.Person{ID: uuid.New(), Patient: true}
	f.persons.persons[p.ID] = p
	return p
}

func (f *fixture) addProvider(roleID uuid.UUID) *person.Person {
	p := &person.Person{ID: uuid.New()}
	f.persons.persons[p.ID] = p
	prov := &provider.Provider{ID: uuid.New(), PersonID: p.ID, Identifier: "PRV-" + p.ID.String()[:8], RoleID: roleID}
	f.providers.providers[prov.ID] = prov
	return p
}

func (f *fixture) openCount(providerID, patientID, typeID uuid.UUID, on time.Time) int {
	n := 0
	for _, r := range f.rels.rels {
		if r.PersonAID == providerID && r.PersonBID == patientID && r.TypeID == typeID && r.OpenOn(on) {
			n++
		}
	}
	return n
}

func idSet(ps []*person.Person) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(ps))
	for _, p := range ps {
		out[p.ID] = true
	}
	return out
}

func TestAssignPatient_OpensIntervalOnDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()

	rel, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.primary.ID, day(2024, 3, 1))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !rel.StartDate.Equal(day(2024, 3, 1)) {
		t.Errorf("start date = %v, want 2024-03-01", rel.StartDate)
	}
	if rel.EndDate != nil {
		t.Errorf("new interval should be open, end date = %v", rel.EndDate)
	}

	got, err := f.svc.Patients(ctx, doc.ID, f.primary.ID, day(2024, 3, 2))
	if err != nil {
		t.Fatalf("patients: %v", err)
	}
	if len(got) != 1 || got[0].ID != pat.ID {
		t.Errorf("patients on day 2 should be exactly the assigned patient, got %d", len(got))
	}

	before, err := f.svc.Patients(ctx, doc.ID, f.primary.ID, day(2024, 2, 28))
	if err != nil {
		t.Fatalf("patients before start: %v", err)
	}
	if len(before) != 0 {
		t.Errorf("no patients expected before the start date, got %d", len(before))
	}
}

func TestAssignPatient_StripsTimeOfDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()

	rel, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.primary.ID,
		time.Date(2024, 3, 1, 17, 30, 45, 0, time.UTC))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !rel.StartDate.Equal(day(2024, 3, 1)) {
		t.Errorf("time of day should be stripped, start = %v", rel.StartDate)
	}
}

func TestAssignPatient_ZeroDateMeansToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()

	rel, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.primary.ID, time.Time{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	today := relationship.DateOnly(time.Now())
	if !rel.StartDate.Equal(today) {
		t.Errorf("zero date should resolve to today, start = %v", rel.StartDate)
	}
}

func TestAssignPatient_SecondAssignFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()

	if _, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.primary.ID, day(2024, 3, 1)); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	_, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.primary.ID, day(2024, 3, 5))
	if !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("expected ErrAlreadyAssigned, got %v", err)
	}
	if n := f.openCount(doc.ID, pat.ID, f.primary.ID, day(2024, 3, 5)); n != 1 {
		t.Errorf("exactly one open interval expected, got %d", n)
	}
}

func TestAssignPatient_PreconditionFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()
	on := day(2024, 3, 1)

	t.Run("patient not found", func(t *testing.T) {
		_, err := f.svc.AssignPatient(ctx, uuid.New(), doc.ID, f.primary.ID, on)
		if !errors.Is(err, person.ErrPersonNotFound) {
			t.Errorf("expected ErrPersonNotFound, got %v", err)
		}
	})
	t.Run("person is not a patient", func(t *testing.T) {
		_, err := f.svc.AssignPatient(ctx, doc.ID, doc.ID, f.primary.ID, on)
		if !errors.Is(err, person.ErrNotAPatient) {
			t.Errorf("expected ErrNotAPatient, got %v", err)
		}
	})
	t.Run("voided patient", func(t *testing.T) {
		voided := f.addPatient()
		voided.Voided = true
		_, err := f.svc.AssignPatient(ctx, voided.ID, doc.ID, f.primary.ID, on)
		if !errors.Is(err, person.ErrPersonVoided) {
			t.Errorf("expected ErrPersonVoided, got %v", err)
		}
	})
	t.Run("provider person not found", func(t *testing.T) {
		_, err := f.svc.AssignPatient(ctx, pat.ID, uuid.New(), f.primary.ID, on)
		if !errors.Is(err, person.ErrPersonNotFound) {
			t.Errorf("expected ErrPersonNotFound, got %v", err)
		}
	})
	t.Run("relationship type not found", func(t *testing.T) {
		_, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, uuid.New(), on)
		if !errors.Is(err, ErrTypeNotFound) {
			t.Errorf("expected ErrTypeNotFound, got %v", err)
		}
	})
	t.Run("person without provider record", func(t *testing.T) {
		civilian := &person.Person{ID: uuid.New()}
		f.persons.persons[civilian.ID] = civilian
		_, err := f.svc.AssignPatient(ctx, pat.ID, civilian.ID, f.primary.ID, on)
		if !errors.Is(err, ErrNotProvider) {
			t.Errorf("expected ErrNotProvider, got %v", err)
		}
	})

	if len(f.rels.rels) != 0 {
		t.Errorf("no interval should exist after failed preconditions, got %d", len(f.rels.rels))
	}
}

func TestAssignPatient_RoleDoesNotSupportType(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	nurse := f.addProvider(f.nurse.ID)
	pat := f.addPatient()

	_, err := f.svc.AssignPatient(ctx, pat.ID, nurse.ID, f.surgical.ID, day(2024, 3, 1))
	if !errors.Is(err, ErrRoleNotSupported) {
		t.Fatalf("expected ErrRoleNotSupported, got %v", err)
	}
	if len(f.rels.rels) != 0 {
		t.Errorf("failed assignment must not create an interval, got %d", len(f.rels.rels))
	}
}

func TestUnassignPatient_ClosesInterval(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()

	if _, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.primary.ID, day(2024, 3, 1)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := f.svc.UnassignPatient(ctx, pat.ID, doc.ID, f.primary.ID, day(2024, 3, 5)); err != nil {
		t.Fatalf("unassign: %v", err)
	}

	// The interval is closed as of its own end date.
	onEnd, err := f.svc.Patients(ctx, doc.ID, f.primary.ID, day(2024, 3, 5))
	if err != nil {
		t.Fatalf("patients on end date: %v", err)
	}
	if len(onEnd) != 0 {
		t.Errorf("patient should not appear on the unassignment date, got %d", len(onEnd))
	}

	during, err := f.svc.Patients(ctx, doc.ID, f.primary.ID, day(2024, 3, 4))
	if err != nil {
		t.Fatalf("patients during interval: %v", err)
	}
	if len(during) != 1 {
		t.Errorf("patient should still appear the day before, got %d", len(during))
	}
}

func TestUnassignPatient_NotAssigned(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()

	err := f.svc.UnassignPatient(ctx, pat.ID, doc.ID, f.primary.ID, day(2024, 3, 1))
	if !errors.Is(err, ErrNotAssigned) {
		t.Errorf("expected ErrNotAssigned, got %v", err)
	}
}

func TestUnassignPatient_TypeOutsideProviderDomain(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()

	// A real relationship type no role supports.
	sibling := &relationship.RelationshipType{ID: uuid.New(), AIsToB: "Sibling", BIsToA: "Sibling"}
	f.types.types[sibling.ID] = sibling

	err := f.svc.UnassignPatient(ctx, pat.ID, doc.ID, sibling.ID, day(2024, 3, 1))
	if !errors.Is(err, ErrInvalidRelationshipType) {
		t.Errorf("expected ErrInvalidRelationshipType, got %v", err)
	}
}

func TestUnassignPatient_TwoOpenIntervalsIsFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()

	// Two open intervals for one triple, planted behind the engine's
	// back. The engine must refuse to repair this.
	for i := 0; i < 2; i++ {
		rel := &relationship.Relationship{
			ID: uuid.New(), PersonAID: doc.ID, PersonBID: pat.ID,
			TypeID: f.primary.ID, StartDate: day(2024, 3, 1),
		}
		f.rels.rels[rel.ID] = rel
	}

	err := f.svc.UnassignPatient(ctx, pat.ID, doc.ID, f.primary.ID, day(2024, 3, 5))
	if !IsConsistencyError(err) {
		t.Fatalf("expected a consistency error, got %v", err)
	}
	if n := f.openCount(doc.ID, pat.ID, f.primary.ID, day(2024, 3, 5)); n != 2 {
		t.Errorf("both intervals must remain untouched, %d still open", n)
	}
}

func TestUnassignThenReassignSameDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()
	on := day(2024, 3, 1)

	if _, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.primary.ID, on); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := f.svc.UnassignPatient(ctx, pat.ID, doc.ID, f.primary.ID, on); err != nil {
		t.Fatalf("same-day unassign: %v", err)
	}
	// The closed interval does not block a fresh one on the same day.
	if _, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.primary.ID, on); err != nil {
		t.Fatalf("reassign after same-day close: %v", err)
	}
}

func TestPatients_AllTypesDeduplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()
	on := day(2024, 3, 1)

	if _, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.primary.ID, on); err != nil {
		t.Fatalf("assign primary: %v", err)
	}
	if _, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.surgical.ID, on); err != nil {
		t.Fatalf("assign surgical: %v", err)
	}

	got, err := f.svc.Patients(ctx, doc.ID, uuid.Nil, day(2024, 3, 2))
	if err != nil {
		t.Fatalf("patients: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("patient assigned under two types must be returned once, got %d", len(got))
	}
}

func TestPatients_ExcludesVoided(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	pat := f.addPatient()
	other := f.addPatient()
	on := day(2024, 3, 1)

	if _, err := f.svc.AssignPatient(ctx, pat.ID, doc.ID, f.primary.ID, on); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.svc.AssignPatient(ctx, other.ID, doc.ID, f.primary.ID, on); err != nil {
		t.Fatalf("assign: %v", err)
	}
	pat.Voided = true

	got, err := f.svc.Patients(ctx, doc.ID, f.primary.ID, day(2024, 3, 2))
	if err != nil {
		t.Fatalf("patients: %v", err)
	}
	if len(got) != 1 || got[0].ID != other.ID {
		t.Errorf("voided patient should be excluded, got %d", len(got))
	}
}

func TestPatients_NonPatientOnPatientSideIsFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	civilian := &person.Person{ID: uuid.New()}
	f.persons.persons[civilian.ID] = civilian

	rel := &relationship.Relationship{
		ID: uuid.New(), PersonAID: doc.ID, PersonBID: civilian.ID,
		TypeID: f.primary.ID, StartDate: day(2024, 3, 1),
	}
	f.rels.rels[rel.ID] = rel

	_, err := f.svc.Patients(ctx, doc.ID, f.primary.ID, day(2024, 3, 2))
	if !IsConsistencyError(err) {
		t.Errorf("expected a consistency error, got %v", err)
	}
}

func TestPatients_RequiresProvider(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	pat := f.addPatient()

	_, err := f.svc.Patients(ctx, pat.ID, f.primary.ID, day(2024, 3, 1))
	if !errors.Is(err, ErrNotProvider) {
		t.Errorf("expected ErrNotProvider, got %v", err)
	}
}

func TestUnassignAllPatients(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	a, b := f.addPatient(), f.addPatient()

	if _, err := f.svc.AssignPatient(ctx, a.ID, doc.ID, f.primary.ID, day(2024, 3, 1)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.svc.AssignPatient(ctx, b.ID, doc.ID, f.surgical.ID, day(2024, 3, 1)); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := f.svc.UnassignAllPatients(ctx, doc.ID, uuid.Nil); err != nil {
		t.Fatalf("unassign all: %v", err)
	}
	got, err := f.svc.Patients(ctx, doc.ID, uuid.Nil, time.Time{})
	if err != nil {
		t.Fatalf("patients: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("all assignments should be closed, %d patients remain", len(got))
	}

	// Nothing left to close is not an error.
	if err := f.svc.UnassignAllPatients(ctx, doc.ID, uuid.Nil); err != nil {
		t.Errorf("second unassign-all should be silent, got %v", err)
	}
}

func TestTransferAllPatients(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	src := f.addProvider(f.doctor.ID)
	dst := f.addProvider(f.doctor.ID)
	p1, p2 := f.addPatient(), f.addPatient()
	on := day(2024, 3, 1)

	if _, err := f.svc.AssignPatient(ctx, p1.ID, src.ID, f.primary.ID, on); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.svc.AssignPatient(ctx, p2.ID, src.ID, f.primary.ID, on); err != nil {
		t.Fatalf("assign: %v", err)
	}
	// The destination already has p1; the transfer must tolerate it.
	if _, err := f.svc.AssignPatient(ctx, p1.ID, dst.ID, f.primary.ID, on); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := f.svc.TransferAllPatients(ctx, src.ID, dst.ID, f.primary.ID); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	srcPatients, err := f.svc.Patients(ctx, src.ID, f.primary.ID, time.Time{})
	if err != nil {
		t.Fatalf("source patients: %v", err)
	}
	if len(srcPatients) != 0 {
		t.Errorf("source should have no patients after transfer, got %d", len(srcPatients))
	}

	dstPatients, err := f.svc.Patients(ctx, dst.ID, f.primary.ID, time.Time{})
	if err != nil {
		t.Fatalf("destination patients: %v", err)
	}
	ids := idSet(dstPatients)
	if len(dstPatients) != 2 || !ids[p1.ID] || !ids[p2.ID] {
		t.Errorf("destination should have both patients, got %d", len(dstPatients))
	}
	if n := f.openCount(dst.ID, p1.ID, f.primary.ID, relationship.DateOnly(time.Now())); n != 1 {
		t.Errorf("pre-existing destination assignment must stay single, %d open intervals", n)
	}
}

func TestTransferAllPatients_AllTypes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	src := f.addProvider(f.doctor.ID)
	dst := f.addProvider(f.doctor.ID)
	p1, p2 := f.addPatient(), f.addPatient()
	on := day(2024, 3, 1)

	if _, err := f.svc.AssignPatient(ctx, p1.ID, src.ID, f.primary.ID, on); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.svc.AssignPatient(ctx, p2.ID, src.ID, f.surgical.ID, on); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := f.svc.TransferAllPatients(ctx, src.ID, dst.ID, uuid.Nil); err != nil {
		t.Fatalf("transfer all types: %v", err)
	}

	dstPatients, err := f.svc.Patients(ctx, dst.ID, uuid.Nil, time.Time{})
	if err != nil {
		t.Fatalf("destination patients: %v", err)
	}
	if len(dstPatients) != 2 {
		t.Errorf("destination should have patients from both types, got %d", len(dstPatients))
	}
}

func TestTransferAllPatients_SameProvider(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)

	err := f.svc.TransferAllPatients(ctx, doc.ID, doc.ID, f.primary.ID)
	if !errors.Is(err, ErrSameProvider) {
		t.Errorf("expected ErrSameProvider, got %v", err)
	}
}

func TestTransferAllPatients_DestinationMustBeProvider(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	src := f.addProvider(f.doctor.ID)
	civilian := &person.Person{ID: uuid.New()}
	f.persons.persons[civilian.ID] = civilian

	err := f.svc.TransferAllPatients(ctx, src.ID, civilian.ID, f.primary.ID)
	if !errors.Is(err, ErrNotProvider) {
		t.Errorf("expected ErrNotProvider, got %v", err)
	}
}

func TestAssignRoleToProvider(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := &person.Person{ID: uuid.New()}
	f.persons.persons[p.ID] = p

	if err := f.svc.AssignRoleToProvider(ctx, p.ID, f.doctor.ID, "DOC-1"); err != nil {
		t.Fatalf("assign role: %v", err)
	}
	got, err := f.svc.providers.RoleOf(ctx, p.ID)
	if err != nil {
		t.Fatalf("role of: %v", err)
	}
	if got != f.doctor.ID {
		t.Errorf("person should now hold the doctor role, got %s", got)
	}

	// Already holding the role is a no-op.
	if err := f.svc.AssignRoleToProvider(ctx, p.ID, f.doctor.ID, "DOC-1"); err != nil {
		t.Fatalf("repeat assign: %v", err)
	}
	active, _ := f.svc.providers.ProvidersByPerson(ctx, p.ID)
	if len(active) != 1 {
		t.Errorf("repeat assignment must not create a second record, got %d", len(active))
	}
}

// A person holds one role at a time: binding a new role retires the
// record carrying the old one.
func TestAssignRoleToProvider_ReplacesExistingRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := &person.Person{ID: uuid.New()}
	f.persons.persons[p.ID] = p

	if err := f.svc.AssignRoleToProvider(ctx, p.ID, f.nurse.ID, "NRS-1"); err != nil {
		t.Fatalf("assign nurse: %v", err)
	}
	if err := f.svc.AssignRoleToProvider(ctx, p.ID, f.doctor.ID, "DOC-1"); err != nil {
		t.Fatalf("assign doctor: %v", err)
	}

	got, err := f.svc.providers.RoleOf(ctx, p.ID)
	if err != nil {
		t.Fatalf("role of: %v", err)
	}
	if got != f.doctor.ID {
		t.Errorf("active role should be doctor, got %s", got)
	}
	active, _ := f.svc.providers.ProvidersByPerson(ctx, p.ID)
	if len(active) != 1 {
		t.Errorf("old record should be retired, %d active records", len(active))
	}
}

func TestAssignRoleToProvider_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := &person.Person{ID: uuid.New()}
	f.persons.persons[p.ID] = p

	if err := f.svc.AssignRoleToProvider(ctx, p.ID, f.doctor.ID, ""); !errors.Is(err, ErrIdentifierRequired) {
		t.Errorf("expected ErrIdentifierRequired, got %v", err)
	}
	if err := f.svc.AssignRoleToProvider(ctx, uuid.New(), f.doctor.ID, "X-1"); !errors.Is(err, person.ErrPersonNotFound) {
		t.Errorf("expected ErrPersonNotFound, got %v", err)
	}
	if err := f.svc.AssignRoleToProvider(ctx, p.ID, uuid.New(), "X-1"); !errors.Is(err, role.ErrRoleNotFound) {
		t.Errorf("expected ErrRoleNotFound, got %v", err)
	}

	voided := &person.Person{ID: uuid.New(), Voided: true}
	f.persons.persons[voided.ID] = voided
	if err := f.svc.AssignRoleToProvider(ctx, voided.ID, f.doctor.ID, "X-1"); !errors.Is(err, person.ErrPersonVoided) {
		t.Errorf("expected ErrPersonVoided, got %v", err)
	}
}

func TestUnassignRoleFromProvider(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)

	if err := f.svc.UnassignRoleFromProvider(ctx, doc.ID, f.doctor.ID); err != nil {
		t.Fatalf("unassign role: %v", err)
	}
	if ok, _ := f.svc.providers.IsProvider(ctx, doc.ID); ok {
		t.Error("person should no longer be a provider")
	}

	// Not holding the role is a no-op.
	if err := f.svc.UnassignRoleFromProvider(ctx, doc.ID, f.doctor.ID); err != nil {
		t.Errorf("repeat unassign should be silent, got %v", err)
	}
}

func TestProvidersByRoles(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	nurse := f.addProvider(f.nurse.ID)
	f.addPatient()

	got, err := f.svc.ProvidersByRoles(ctx, []uuid.UUID{f.doctor.ID, f.nurse.ID})
	if err != nil {
		t.Fatalf("providers by roles: %v", err)
	}
	ids := idSet(got)
	if len(got) != 2 || !ids[doc.ID] || !ids[nurse.ID] {
		t.Errorf("expected both role holders, got %d", len(got))
	}

	if _, err := f.svc.ProvidersByRoles(ctx, nil); !errors.Is(err, ErrNoRoles) {
		t.Errorf("empty role set: expected ErrNoRoles, got %v", err)
	}
	if _, err := f.svc.ProvidersByRoles(ctx, []uuid.UUID{uuid.New()}); !errors.Is(err, role.ErrRoleNotFound) {
		t.Errorf("unknown role: expected ErrRoleNotFound, got %v", err)
	}
}

func TestProvidersByRelationshipType(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	nurse := f.addProvider(f.nurse.ID)

	// Surgical care is doctor-only.
	got, err := f.svc.ProvidersByRelationshipType(ctx, f.surgical.ID)
	if err != nil {
		t.Fatalf("providers by type: %v", err)
	}
	if len(got) != 1 || got[0].ID != doc.ID {
		t.Errorf("expected only the doctor, got %d", len(got))
	}

	// Primary care is both.
	got, err = f.svc.ProvidersByRelationshipType(ctx, f.primary.ID)
	if err != nil {
		t.Fatalf("providers by type: %v", err)
	}
	ids := idSet(got)
	if len(got) != 2 || !ids[doc.ID] || !ids[nurse.ID] {
		t.Errorf("expected doctor and nurse, got %d", len(got))
	}

	// A real type no role supports yields an empty result, not an error.
	sibling := &relationship.RelationshipType{ID: uuid.New(), AIsToB: "Sibling", BIsToA: "Sibling"}
	f.types.types[sibling.ID] = sibling
	got, err = f.svc.ProvidersByRelationshipType(ctx, sibling.ID)
	if err != nil {
		t.Fatalf("unsupported type: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no providers, got %d", len(got))
	}

	if _, err := f.svc.ProvidersByRelationshipType(ctx, uuid.New()); !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("unknown type: expected ErrTypeNotFound, got %v", err)
	}
}

func TestProvidersBySuperviseeRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := f.addProvider(f.doctor.ID)
	f.addProvider(f.nurse.ID)

	// Doctors supervise nurses.
	got, err := f.svc.ProvidersBySuperviseeRole(ctx, f.nurse.ID)
	if err != nil {
		t.Fatalf("providers by supervisee role: %v", err)
	}
	if len(got) != 1 || got[0].ID != doc.ID {
		t.Errorf("expected the doctor as supervisor, got %d", len(got))
	}

	// Nobody supervises doctors.
	got, err = f.svc.ProvidersBySuperviseeRole(ctx, f.doctor.ID)
	if err != nil {
		t.Fatalf("providers by supervisee role: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no supervisors, got %d", len(got))
	}

	if _, err := f.svc.ProvidersBySuperviseeRole(ctx, uuid.New()); !errors.Is(err, role.ErrRoleNotFound) {
		t.Errorf("unknown role: expected ErrRoleNotFound, got %v", err)
	}
}
