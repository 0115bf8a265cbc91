package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/intelligence/internal/common"
	"github.com/dmitrijs2005/intelligence/internal/dbx"
	"github.com/dmitrijs2005/intelligence/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// newID is a seam for tests.
var newID = func() string { return uuid.NewString() }

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = newID()
	}

	query :=
		`INSERT INTO users (id, admin, name, email, password, firstname, lastname)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Admin, user.Name, user.Email, user.Password,
		nullString(user.FirstName), nullString(user.LastName)).Scan(&user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query :=
		`SELECT id, admin, name, email, password, firstname, lastname, created_at FROM users
		 WHERE id::text = $1 OR name = $1 OR email = $1
		 LIMIT 1
		 `

	user := &models.User{}
	var first, last sql.NullString
	err := r.db.QueryRowContext(ctx, query, identifier).Scan(
		&user.ID, &user.Admin, &user.Name, &user.Email, &user.Password, &first, &last, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.FirstName = stringPtr(first)
	user.LastName = stringPtr(last)

	return user, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
