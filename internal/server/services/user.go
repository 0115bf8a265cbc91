// Package services contains server-side business logic. This file implements
// UserService, which creates users and exchanges credentials for access
// tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/intelligence/internal/common"
	"github.com/dmitrijs2005/intelligence/internal/cryptox"
	"github.com/dmitrijs2005/intelligence/internal/dbx"
	"github.com/dmitrijs2005/intelligence/internal/server/auth"
	"github.com/dmitrijs2005/intelligence/internal/server/models"
	"github.com/dmitrijs2005/intelligence/internal/server/repositories/repomanager"
)

// ErrInvalidUser is returned by Register for incomplete input.
var ErrInvalidUser = errors.New("name, email and password are required")

// NewUser is the input to Register. Password is wiped after hashing.
type NewUser struct {
	Name      string
	Email     string
	Password  []byte
	FirstName string
	LastName  string
	Admin     bool
}

// UserService provides user operations:
// - Register: hash the password and create the user
// - Login: verify credentials and mint an access token
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	hashParams  cryptox.Params
	now         func() time.Time

	// dummyHash is verified against when the user is unknown so that both
	// failure paths cost one argon2id derivation.
	dummyHash string
}

type UserServiceOption func(*UserService)

func WithHashParams(p cryptox.Params) UserServiceOption {
	return func(s *UserService) { s.hashParams = p }
}

func WithNow(now func() time.Time) UserServiceOption {
	return func(s *UserService) { s.now = now }
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, opts ...UserServiceOption) *UserService {
	s := &UserService{
		db:          db,
		repomanager: m,
		codec:       codec,
		hashParams:  cryptox.DefaultParams,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.dummyHash = cryptox.HashPassword(common.GenerateRandByteArray(16), s.hashParams)
	return s
}

// Register creates a user inside a transaction.
func (s *UserService) Register(ctx context.Context, in NewUser) (*models.User, error) {
	defer common.WipeByteArray(in.Password)

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || len(in.Password) == 0 {
		return nil, ErrInvalidUser
	}

	user := &models.User{
		Admin:     in.Admin,
		Name:      name,
		Email:     email,
		Password:  cryptox.HashPassword(in.Password, s.hashParams),
		FirstName: optional(in.FirstName),
		LastName:  optional(in.LastName),
	}

	var created *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return created, nil
}

// Login verifies password for the user named by identifier (id, name or
// email) and returns a signed access token. Unknown users and wrong
// passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, identifier string, password []byte) (string, error) {
	defer common.WipeByteArray(password)

	user, err := s.repomanager.Users(s.db).FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.VerifyPassword(s.dummyHash, password)
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	ok, err := cryptox.VerifyPassword(user.Password, password)
	if err != nil || !ok {
		return "", common.ErrorUnauthorized
	}

	token, err := s.codec.Issue(user.ID, s.now())
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
