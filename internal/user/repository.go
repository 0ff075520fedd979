package user

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles user data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new user repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user profile into the database
func (r *Repository) Create(ctx context.Context, subject string, req *CreateUserRequest) (*User, error) {
	query := `
		INSERT INTO users (subject, name, nickname, email, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, subject, name, nickname, email, avatar_url, updated_at
	`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, subject, req.Name, req.Nickname, req.Email, req.AvatarURL).Scan(
		&user.ID,
		&user.Subject,
		&user.Name,
		&user.Nickname,
		&user.Email,
		&user.AvatarURL,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by their internal ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT id, subject, name, nickname, email, avatar_url, updated_at
		FROM users
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetBySubject retrieves a user by their auth-provider subject
func (r *Repository) GetBySubject(ctx context.Context, subject string) (*User, error) {
	query := `
		SELECT id, subject, name, nickname, email, avatar_url, updated_at
		FROM users
		WHERE subject = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, subject))
}

// List retrieves users ordered by ID
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `
		SELECT id, subject, name, nickname, email, avatar_url, updated_at
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(
			&user.ID,
			&user.Subject,
			&user.Name,
			&user.Nickname,
			&user.Email,
			&user.AvatarURL,
			&user.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, total, nil
}

// Update modifies an existing user profile and refreshes its update timestamp
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error) {
	query := `
		UPDATE users
		SET name = COALESCE($1, name),
		    nickname = COALESCE($2, nickname),
		    email = COALESCE($3, email),
		    avatar_url = COALESCE($4, avatar_url),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
		RETURNING id, subject, name, nickname, email, avatar_url, updated_at
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, req.Name, req.Nickname, req.Email, req.AvatarURL, id))
}

// Delete removes a user from the database
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *Repository) scanOne(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Subject,
		&user.Name,
		&user.Nickname,
		&user.Email,
		&user.AvatarURL,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
