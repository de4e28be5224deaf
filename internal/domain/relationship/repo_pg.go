package relationship

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type relationshipRepoPG struct{ pool *pgxpool.Pool }

func NewRelationshipRepoPG(pool *pgxpool.Pool) RelationshipRepository {
	return &relationshipRepoPG{pool: pool}
}

const relCols = `id, person_a_id, person_b_id, type_id, start_date, end_date,
	voided, created_at, updated_at`

func scanRelationship(row pgx.Row) (*Relationship, error) {
	var r Relationship
	err := row.Scan(&r.ID, &r.PersonAID, &r.PersonBID, &r.TypeID,
		&r.StartDate, &r.EndDate, &r.Voided, &r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (repo *relationshipRepoPG) Find(ctx context.Context, q Query) ([]*Relationship, error) {
	sql := `SELECT ` + relCols + ` FROM relationship WHERE voided = FALSE`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.PersonAID != nil {
		sql += ` AND person_a_id = ` + arg(*q.PersonAID)
	}
	if q.PersonBID != nil {
		sql += ` AND person_b_id = ` + arg(*q.PersonBID)
	}
	if q.TypeID != nil {
		sql += ` AND type_id = ` + arg(*q.TypeID)
	}
	if q.AsOf != nil {
		d := arg(DateOnly(*q.AsOf))
		sql += ` AND start_date <= ` + d + ` AND (end_date IS NULL OR end_date > ` + d + `)`
	}
	sql += ` ORDER BY start_date`

	rows, err := repo.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (repo *relationshipRepoPG) Save(ctx context.Context, r *Relationship) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := repo.pool.Exec(ctx, `
		INSERT INTO relationship (id, person_a_id, person_b_id, type_id, start_date, end_date, voided)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE
		SET end_date = EXCLUDED.end_date, voided = EXCLUDED.voided, updated_at = NOW()`,
		r.ID, r.PersonAID, r.PersonBID, r.TypeID, r.StartDate, r.EndDate, r.Voided)
	return err
}

type typeRepoPG struct{ pool *pgxpool.Pool }

func NewTypeRepoPG(pool *pgxpool.Pool) TypeRepository {
	return &typeRepoPG{pool: pool}
}

const typeCols = `id, a_is_to_b, b_is_to_a, retired, created_at`

func (repo *typeRepoPG) GetType(ctx context.Context, id uuid.UUID) (*RelationshipType, error) {
	var t RelationshipType
	err := repo.pool.QueryRow(ctx, `SELECT `+typeCols+` FROM relationship_type WHERE id = $1`, id).
		Scan(&t.ID, &t.AIsToB, &t.BIsToA, &t.Retired, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (repo *typeRepoPG) ListTypes(ctx context.Context, includeRetired bool) ([]*RelationshipType, error) {
	sql := `SELECT ` + typeCols + ` FROM relationship_type`
	if !includeRetired {
		sql += ` WHERE retired = FALSE`
	}
	sql += ` ORDER BY a_is_to_b`
	rows, err := repo.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*RelationshipType
	for rows.Next() {
		var t RelationshipType
		if err := rows.Scan(&t.ID, &t.AIsToB, &t.BIsToA, &t.Retired, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}
