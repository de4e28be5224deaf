package person

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type personRepoPG struct{ pool *pgxpool.Pool }

func NewPersonRepoPG(pool *pgxpool.Pool) PersonRepository {
	return &personRepoPG{pool: pool}
}

const personCols = `id, name_family, name_given, gender, birth_date,
	patient, voided, void_reason, created_at, updated_at`

func scanPerson(row pgx.Row) (*Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.NameFamily, &p.NameGiven, &p.Gender, &p.BirthDate,
		&p.Patient, &p.Voided, &p.VoidReason, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *personRepoPG) Create(ctx context.Context, p *Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO person (id, name_family, name_given, gender, birth_date, patient)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.NameFamily, p.NameGiven, p.Gender, p.BirthDate, p.Patient)
	return err
}

func (r *personRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Person, error) {
	return scanPerson(r.pool.QueryRow(ctx, `SELECT `+personCols+` FROM person WHERE id = $1`, id))
}

func (r *personRepoPG) Update(ctx context.Context, p *Person) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE person SET name_family=$2, name_given=$3, gender=$4, birth_date=$5,
			patient=$6, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.NameFamily, p.NameGiven, p.Gender, p.BirthDate, p.Patient)
	return err
}

func (r *personRepoPG) Void(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE person SET voided = TRUE, void_reason = $2, updated_at = NOW()
		WHERE id = $1`, id, reason)
	return err
}

func (r *personRepoPG) List(ctx context.Context, patientsOnly bool, limit, offset int) ([]*Person, int, error) {
	where := `WHERE voided = FALSE`
	if patientsOnly {
		where += ` AND patient = TRUE`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM person `+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+personCols+` FROM person `+where+
		` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
