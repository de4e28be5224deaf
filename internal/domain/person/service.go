package person

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPersonNotFound = errors.New("person not found")
	ErrPersonVoided   = errors.New("person is voided")
	ErrNotAPatient    = errors.New("person is not a patient")
)

type Service struct {
	persons PersonRepository
}

func NewService(p PersonRepository) *Service {
	return &Service{persons: p}
}

func (s *Service) CreatePerson(ctx context.Context, p *Person) error {
	return s.persons.Create(ctx, p)
}

func (s *Service) GetPerson(ctx context.Context, id uuid.UUID) (*Person, error) {
	p, err := s.persons.GetByID(ctx, id)
	if err != nil {
		return nil, ErrPersonNotFound
	}
	return p, nil
}

// GetPatient resolves a person and requires them to be an active patient.
// Voided patients are excluded from all patient-returning queries.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Person, error) {
	p, err := s.GetPerson(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Patient {
		return nil, ErrNotAPatient
	}
	if p.Voided {
		return nil, ErrPersonVoided
	}
	return p, nil
}

func (s *Service) UpdatePerson(ctx context.Context, p *Person) error {
	return s.persons.Update(ctx, p)
}

func (s *Service) VoidPerson(ctx context.Context, id uuid.UUID, reason string) error {
	if _, err := s.GetPerson(ctx, id); err != nil {
		return err
	}
	return s.persons.Void(ctx, id, reason)
}

func (s *Service) ListPersons(ctx context.Context, patientsOnly bool, limit, offset int) ([]*Person, int, error) {
	return s.persons.List(ctx, patientsOnly, limit, offset)
}
