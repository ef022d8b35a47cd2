package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

const userColumns = `id, name, last_name, email, phone, address, registered_at, state, version, created_at, updated_at`

type userRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт PostgreSQL-реализацию UserRepository.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{db: store.DB()}
}

func (r *userRepository) Create(user domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, name, last_name, email, phone, address, registered_at, state, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		user.ID, user.Name, user.LastName, user.Email, user.Phone, user.Address,
		user.RegisteredAt, string(user.State), user.Version, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *userRepository) Get(id string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

func (r *userRepository) List(limit int) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		return r.queryUsers(query+" LIMIT $1", limit)
	}
	return r.queryUsers(query)
}

func (r *userRepository) ListByState(state domain.UserState) ([]domain.User, error) {
	return r.queryUsers(`
		SELECT `+userColumns+`
		FROM users
		WHERE state = $1
		ORDER BY created_at DESC, id DESC
	`, string(state))
}

func (r *userRepository) Search(text string) ([]domain.User, error) {
	pattern := "%" + text + "%"
	return r.queryUsers(`
		SELECT `+userColumns+`
		FROM users
		WHERE name ILIKE $1 OR last_name ILIKE $1
		ORDER BY created_at DESC, id DESC
	`, pattern)
}

func (r *userRepository) Save(user domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1,
		    last_name = $2,
		    email = $3,
		    phone = $4,
		    address = $5,
		    registered_at = $6,
		    state = $7,
		    version = version + 1,
		    updated_at = $8
		WHERE id = $9
		  AND version = $10
	`,
		user.Name, user.LastName, user.Email, user.Phone, user.Address,
		user.RegisteredAt, string(user.State), user.UpdatedAt, user.ID, user.Version,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.userExists(ctx, user.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrUserNotFound
		}
		return domain.ErrVersionConflict
	}

	return nil
}

func (r *userRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) queryUsers(query string, args ...any) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, nil
}

func (r *userRepository) userExists(ctx context.Context, id string) (bool, error) {
	var found string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check user exists: %w", err)
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user  domain.User
		state string
	)
	if err := row.Scan(
		&user.ID, &user.Name, &user.LastName, &user.Email, &user.Phone, &user.Address,
		&user.RegisteredAt, &state, &user.Version, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return domain.User{}, err
	}
	user.State = domain.UserState(state)
	return user, nil
}

var _ domain.UserRepository = (*userRepository)(nil)
