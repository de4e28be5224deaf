package provider

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type providerRepoPG struct{ pool *pgxpool.Pool }

func NewProviderRepoPG(pool *pgxpool.Pool) ProviderRepository {
	return &providerRepoPG{pool: pool}
}

const providerCols = `p.id, p.person_id, p.identifier, p.retired, p.retire_reason,
	p.created_at, p.updated_at, p.retired_at, COALESCE(pa.value_ref, '00000000-0000-0000-0000-000000000000')`

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.PersonID, &p.Identifier, &p.Retired, &p.RetireReason,
		&p.CreatedAt, &p.UpdatedAt, &p.RetiredAt, &p.RoleID)
	return &p, err
}

func (r *providerRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Provider, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *providerRepoPG) GetByPerson(ctx context.Context, attributeTypeID, personID uuid.UUID) ([]*Provider, error) {
	return r.query(ctx, `
		SELECT `+providerCols+`
		FROM provider p
		LEFT JOIN provider_attribute pa
			ON pa.provider_id = p.id AND pa.attribute_type_id = $1 AND pa.voided = FALSE
		WHERE p.person_id = $2 AND p.retired = FALSE
		ORDER BY p.created_at`, attributeTypeID, personID)
}

func (r *providerRepoPG) ListByAttribute(ctx context.Context, attributeTypeID, roleID uuid.UUID) ([]*Provider, error) {
	return r.query(ctx, `
		SELECT `+providerCols+`
		FROM provider p
		JOIN provider_attribute pa
			ON pa.provider_id = p.id AND pa.attribute_type_id = $1 AND pa.voided = FALSE
		WHERE pa.value_ref = $2 AND p.retired = FALSE
		ORDER BY p.created_at`, attributeTypeID, roleID)
}

func (r *providerRepoPG) Save(ctx context.Context, attributeTypeID uuid.UUID, p *Provider) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO provider (id, person_id, identifier)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE
		SET identifier = EXCLUDED.identifier, updated_at = NOW()`,
		p.ID, p.PersonID, p.Identifier)
	if err != nil {
		return err
	}

	if p.RoleID != uuid.Nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO provider_attribute (id, provider_id, attribute_type_id, value_ref)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (provider_id, attribute_type_id) DO UPDATE
			SET value_ref = EXCLUDED.value_ref, voided = FALSE`,
			uuid.New(), p.ID, attributeTypeID, p.RoleID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *providerRepoPG) Retire(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE provider
		SET retired = TRUE, retire_reason = $2, retired_at = NOW(), updated_at = NOW()
		WHERE id = $1`, id, reason)
	return err
}

func (r *providerRepoPG) GetAttributeTypeByUUID(ctx context.Context, wellKnownUUID string) (*AttributeType, error) {
	var at AttributeType
	err := r.pool.QueryRow(ctx,
		`SELECT id, uuid, name FROM provider_attribute_type WHERE uuid = $1`, wellKnownUUID).
		Scan(&at.ID, &at.UUID, &at.Name)
	if err != nil {
		return nil, err
	}
	return &at, nil
}
