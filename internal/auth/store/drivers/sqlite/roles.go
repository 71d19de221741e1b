package sqlite

import (
	"context"

	"github.com/woowonjae/blogauth/internal/auth/domain"
)

type rolesRepo struct {
	q dbtx
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	var role domain.Role
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name FROM roles WHERE name = ?`, name).Scan(&role.ID, &role.Name)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) AssignRoleToUser(ctx context.Context, userID, roleID int64) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)`, userID, roleID)
	return mapConstraint(err)
}

func (r *rolesRepo) ListRolesForUser(ctx context.Context, userID int64) ([]domain.Role, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT r.id, r.name
		   FROM roles r
		   JOIN user_roles ur ON ur.role_id = r.id
		  WHERE ur.user_id = ?
		  ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
