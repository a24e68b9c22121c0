package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/abayahaven/marketplace-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = "id, username, email, phone, password, user_type, created_at, updated_at"

const (
	listUsersQuery = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC, id DESC
	`
	getUserByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	getUserByEmailQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	insertUserQuery = `
		INSERT INTO users (username, email, phone, password, user_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	userDependentsQuery = `
		SELECT EXISTS (SELECT 1 FROM products WHERE user_id = $1)
			OR EXISTS (SELECT 1 FROM orders WHERE user_id = $1)
	`
	deleteUserQuery = `DELETE FROM users WHERE id = $1`
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, getUserByEmailQuery, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	err := r.db.QueryRowContext(
		ctx,
		insertUserQuery,
		user.Username,
		user.Email,
		user.Phone,
		user.Password,
		string(user.Role),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, patch Patch) (User, error) {
	q := psql.Update("users").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + userColumns)

	if patch.Username != nil {
		q = q.Set("username", *patch.Username)
	}
	if patch.Email != nil {
		q = q.Set("email", *patch.Email)
	}
	if patch.Phone != nil {
		q = q.Set("phone", *patch.Phone)
	}
	if patch.Role != nil {
		q = q.Set("user_type", string(*patch.Role))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return User{}, fmt.Errorf("failed to build user update: %w", err)
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return User{}, ErrNotFound
		case database.IsUniqueViolation(err):
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	var hasDependents bool
	if err := r.db.QueryRowContext(ctx, userDependentsQuery, id).Scan(&hasDependents); err != nil {
		return fmt.Errorf("failed to check user dependents: %w", err)
	}
	if hasDependents {
		return ErrHasDependents
	}

	result, err := r.db.ExecContext(ctx, deleteUserQuery, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrHasDependents
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func scanUser(scanner rowScanner) (User, error) {
	var user User
	var role string
	if err := scanner.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Phone,
		&user.Password,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	user.Role = Role(role)
	return user, nil
}
