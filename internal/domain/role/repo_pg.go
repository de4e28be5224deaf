package role

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type roleRepoPG struct{ pool *pgxpool.Pool }

func NewRoleRepoPG(pool *pgxpool.Pool) RoleRepository {
	return &roleRepoPG{pool: pool}
}

const roleCols = `id, name, description, retired, retire_reason, created_at, updated_at`

func scanRole(row pgx.Row) (*Role, error) {
	var r Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Retired, &r.RetireReason,
		&r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (repo *roleRepoPG) loadAssociations(ctx context.Context, r *Role) error {
	rows, err := repo.pool.Query(ctx,
		`SELECT type_id FROM provider_role_relationship_type WHERE role_id = $1`, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		r.RelationshipTypeIDs = append(r.RelationshipTypeIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = repo.pool.Query(ctx,
		`SELECT supervisee_role_id FROM provider_role_supervisee WHERE role_id = $1`, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		r.SuperviseeRoleIDs = append(r.SuperviseeRoleIDs, id)
	}
	return rows.Err()
}

func (repo *roleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Role, error) {
	r, err := scanRole(repo.pool.QueryRow(ctx, `SELECT `+roleCols+` FROM provider_role WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := repo.loadAssociations(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (repo *roleRepoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Role, error) {
	rows, err := repo.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, r := range items {
		if err := repo.loadAssociations(ctx, r); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (repo *roleRepoPG) List(ctx context.Context, includeRetired bool) ([]*Role, error) {
	sql := `SELECT ` + roleCols + ` FROM provider_role`
	if !includeRetired {
		sql += ` WHERE retired = FALSE`
	}
	return repo.list(ctx, sql+` ORDER BY name`)
}

func (repo *roleRepoPG) Save(ctx context.Context, r *Role) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	tx, err := repo.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO provider_role (id, name, description)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description, updated_at = NOW()`,
		r.ID, r.Name, r.Description)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM provider_role_relationship_type WHERE role_id = $1`, r.ID); err != nil {
		return err
	}
	for _, typeID := range r.RelationshipTypeIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO provider_role_relationship_type (role_id, type_id) VALUES ($1,$2)`,
			r.ID, typeID); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM provider_role_supervisee WHERE role_id = $1`, r.ID); err != nil {
		return err
	}
	for _, roleID := range r.SuperviseeRoleIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO provider_role_supervisee (role_id, supervisee_role_id) VALUES ($1,$2)`,
			r.ID, roleID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (repo *roleRepoPG) Retire(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := repo.pool.Exec(ctx, `
		UPDATE provider_role SET retired = TRUE, retire_reason = $2, updated_at = NOW()
		WHERE id = $1`, id, reason)
	return err
}

func (repo *roleRepoPG) Unretire(ctx context.Context, id uuid.UUID) error {
	_, err := repo.pool.Exec(ctx, `
		UPDATE provider_role SET retired = FALSE, retire_reason = NULL, updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

func (repo *roleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repo.pool.Exec(ctx, `DELETE FROM provider_role WHERE id = $1`, id)
	return err
}

func (repo *roleRepoPG) ListBySupportedType(ctx context.Context, typeID uuid.UUID) ([]*Role, error) {
	return repo.list(ctx, `
		SELECT `+roleCols+` FROM provider_role
		WHERE id IN (SELECT role_id FROM provider_role_relationship_type WHERE type_id = $1)
		ORDER BY name`, typeID)
}

func (repo *roleRepoPG) ListBySuperviseeRole(ctx context.Context, roleID uuid.UUID) ([]*Role, error) {
	return repo.list(ctx, `
		SELECT `+roleCols+` FROM provider_role
		WHERE id IN (SELECT role_id FROM provider_role_supervisee WHERE supervisee_role_id = $1)
		ORDER BY name`, roleID)
}
